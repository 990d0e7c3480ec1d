package main

import (
	"github.com/smallnest/researchdeck/export"
	"github.com/smallnest/researchdeck/log"
	"github.com/smallnest/researchdeck/server"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generation API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := root.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			runner, err := a.runner(ctx)
			if err != nil {
				return err
			}
			st, closer, err := projectStore(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer closer.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr()
			}
			srv := server.New(runner, st,
				server.WithLogger(log.Named(a.logger, "server")),
				server.WithExporter(export.New(export.WithLogger(log.Named(a.logger, "export")))),
				server.WithWriteTimeout(a.cfg.Server.WriteTimeout),
			)
			a.logger.Info("store driver: %s", a.cfg.Store.Driver)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to HOST:PORT from config)")
	return cmd
}
