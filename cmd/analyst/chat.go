package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/analyst"
	bt "github.com/fwojciec/analyst/bubbletea"
	"github.com/fwojciec/analyst/coordinator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newChatCmd(a *app) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// The TUI owns the terminal.
			if a.cfg.Logging.File == "" {
				a.logger = zap.NewNop()
			}
			s, err := a.stack(ctx)
			if err != nil {
				return err
			}

			var history []analyst.Message
			if sessionID == "" {
				sessionID = analyst.NewSessionID()
			} else {
				history, err = s.log.Recent(ctx, sessionID, a.cfg.Log.MaxHistory)
				if err != nil {
					return fmt.Errorf("load session: %w", err)
				}
			}

			run := func(ctx context.Context, sid, utterance string, onState func(analyst.TurnState)) (analyst.Turn, error) {
				return s.coordinator.Run(ctx, sid, utterance, coordinator.WithStateHandler(onState))
			}
			m := bt.New(run, sessionID, history, analyst.DefaultTheme())
			if err := bt.Run(ctx, m); err != nil {
				return fmt.Errorf("TUI: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Session %s\n", sessionID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID to resume")
	return cmd
}
