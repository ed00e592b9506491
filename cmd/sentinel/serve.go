package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sentinel-oversight/sentinel/internal/infrastructure/datasetfile"
	"github.com/sentinel-oversight/sentinel/internal/infrastructure/httpapi"
)

type serveFlags struct {
	addr  string
	watch bool
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the risk API over HTTP",
		Long: `Starts the HTTP API. With data.watch (or --watch) and the json source,
the snapshot is rebuilt whenever the dataset file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "Listen address (default: server.listen_addr)")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "Reload when the dataset file changes")

	return cmd
}

func runServe(cmd *cobra.Command, flags serveFlags) error {
	ctx := cmd.Context()

	return withInternalDeps(ctx, func(d *internalDeps) error {
		addr := d.Config.Server.ListenAddr
		if flags.addr != "" {
			addr = flags.addr
		}

		api := httpapi.New(d.Risk, d.Graph, d.Logger, d.Config.Server.AllowedOrigins)
		srv := &http.Server{
			Addr:              addr,
			Handler:           api.Routes(),
			ReadHeaderTimeout: ReadHeaderTimeout,
		}

		g, gctx := errgroup.WithContext(ctx)

		if (d.Config.Data.Watch || flags.watch) && d.dataPath != "" {
			watcher, err := datasetfile.NewWatcher(d.dataPath, 0, d.Logger, func(ctx context.Context) {
				if _, err := d.service.Refresh(ctx); err != nil {
					d.Logger.Warn("reload failed; keeping previous snapshot", zap.Error(err))
				}
			})
			if err != nil {
				return err
			}
			defer watcher.Stop()
			g.Go(func() error {
				watcher.Run(gctx)
				return nil
			})
		}

		g.Go(func() error {
			d.Logger.Info("listening", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving http: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
			defer cancel()
			d.Logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	})
}
