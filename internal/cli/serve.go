package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/perk-events/internal/api"
	"github.com/pfrederiksen/perk-events/internal/logger"
	"github.com/pfrederiksen/perk-events/internal/metrics"
	"github.com/pfrederiksen/perk-events/internal/preferences"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored events and subscriber preferences over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.APIAddr = addr
			}
			return a.runServe(cmd)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default API_ADDR or :8080)")

	return cmd
}

func (a *app) runServe(cmd *cobra.Command) error {
	if err := a.cfg.ValidateStore(); err != nil {
		return err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	ctx, cancel := a.context(cmd)
	defer cancel()

	st, err := a.openConfiguredStore(ctx, false)
	if err != nil {
		return err
	}
	defer a.closeStore(ctx, st)

	var prefs preferences.Storage
	if a.cfg.SubscribersFile != "" {
		fs, err := preferences.NewFileStorage(a.cfg.SubscribersFile)
		if err != nil {
			return err
		}
		prefs = fs
		a.log.Info("Serving subscriber preferences", logger.Fields{"path": fs.Path()})
	}

	rec := metrics.New()
	srv := api.NewServer(api.Options{
		Events:       st,
		Preferences:  prefs,
		Gatherer:     rec.Registry(),
		Location:     loc,
		Now:          a.now,
		AllowOrigins: a.cfg.APIAllowOrigins,
		Logger:       a.log,
	})

	ln, err := net.Listen("tcp", a.cfg.APIAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.APIAddr, err)
	}
	return a.serve(ctx, ln, srv.Router())
}

// serve runs the HTTP server on ln until ctx is done, then shuts it down.
func (a *app) serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", logger.Fields{"addr": ln.Addr().String()})
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
