package main

import (
	analystmcp "github.com/fwojciec/analyst/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyst as an MCP tool server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.stack(cmd.Context())
			if err != nil {
				return err
			}
			srv := analystmcp.New(s.coordinator,
				analystmcp.WithVersion(version),
				analystmcp.WithLogger(a.logger.Named("mcp")),
			)
			return srv.ServeStdio()
		},
	}
}
