package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/analyst"
	"github.com/fwojciec/analyst/goldmark"
	analystmcp "github.com/fwojciec/analyst/mcp"
	"github.com/spf13/cobra"
)

func newAskCmd(a *app) *cobra.Command {
	var (
		sessionID string
		asJSON    bool
		width     int
	)
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask a single question and print the reply",
		Example: `  analyst ask "Quantos clientes temos?"
  analyst ask --json --session 7f0c "E no cluster 1?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.stack(ctx)
			if err != nil {
				return err
			}
			turn, err := s.coordinator.Run(ctx, sessionID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(analystmcp.NewAskResult(turn))
			}
			fmt.Fprintln(out, goldmark.Render(turn.Reply, width, analyst.DefaultTheme()))
			fmt.Fprintf(cmd.ErrOrStderr(), "\nsession %s\n", turn.SessionID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID to continue (default: new session)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the turn as JSON")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for the rendered reply")
	return cmd
}
