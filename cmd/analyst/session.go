package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fwojciec/analyst"
	analystjson "github.com/fwojciec/analyst/json"
	"github.com/spf13/cobra"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage conversation sessions",
	}
	cmd.AddCommand(
		newSessionListCmd(a),
		newSessionShowCmd(a),
		newSessionExportCmd(a),
		newSessionPurgeCmd(a),
		newSessionPruneCmd(a),
	)
	return cmd
}

func newSessionListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.messageLog()
			if err != nil {
				return err
			}
			stats, err := log.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMESSAGES\tFIRST\tLAST")
			for _, s := range stats {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.ID, s.MessageCount,
					s.FirstAt.Local().Format(time.DateTime), s.LastAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}
}

// loadSession reads a session's logged messages.
func loadSession(cmd *cobra.Command, a *app, id string) (analyst.Session, error) {
	log, err := a.messageLog()
	if err != nil {
		return analyst.Session{}, err
	}
	msgs, err := log.Recent(cmd.Context(), id, a.cfg.Log.MaxHistory)
	if err != nil {
		return analyst.Session{}, err
	}
	if len(msgs) == 0 {
		return analyst.Session{}, fmt.Errorf("session %s: %w", id, analyst.ErrNotFound)
	}
	return analyst.Session{
		ID:        id,
		Messages:  msgs,
		CreatedAt: msgs[0].Timestamp,
		UpdatedAt: msgs[len(msgs)-1].Timestamp,
	}, nil
}

func newSessionShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Print a session's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd, a, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				data, err := analystjson.MarshalSession(s)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			for _, m := range s.Messages {
				fmt.Fprintf(out, "[%s] %s: %s\n", m.Timestamp.Local().Format(time.DateTime), m.Role, m.Content)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session envelope as JSON")
	return cmd
}

func newSessionExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [session-id] [path]",
		Short: "Write a session to a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd, a, args[0])
			if err != nil {
				return err
			}
			if err := analystjson.Save(args[1], s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s saved to %s\n", s.ID, args[1])
			return nil
		},
	}
}

func newSessionPurgeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge [session-id]",
		Short: "Delete a session's history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.messageLog()
			if err != nil {
				return err
			}
			if err := log.Purge(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s purged\n", args[0])
			return nil
		},
	}
}

func newSessionPruneCmd(a *app) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete sessions idle longer than the retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.messageLog()
			if err != nil {
				return err
			}
			if olderThan <= 0 {
				olderThan = a.cfg.Retention()
			}
			n, err := log.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d sessions pruned\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Idle time after which a session is pruned (default: log.retention)")
	return cmd
}
