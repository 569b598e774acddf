package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/tomocy/reddish/config"
	"github.com/tomocy/reddish/infra"
	"github.com/tomocy/reddish/logger"
	"github.com/tomocy/reddish/web"
)

type serveCommand struct {
	open bool
}

func newServeCommand() *cobra.Command {
	s := new(serveCommand)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web client",
		Args:  cobra.NoArgs,
		RunE:  s.run,
	}
	cmd.Flags().BoolVar(&s.open, "open", false, "open the login page in the browser")

	return cmd
}

func (s *serveCommand) run(cmd *cobra.Command, _ []string) error {
	cnf, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app := fx.New(
		fx.Supply(cnf),
		fx.Provide(
			newLogger,
			fx.Annotate(
				infra.NewReddit,
				fx.As(new(web.Authorizer)),
			),
			web.NewServer,
		),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),
		fx.Invoke(s.register),
	)
	if err := app.Err(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	return app.Stop(context.Background())
}

func (s *serveCommand) register(lc fx.Lifecycle, cnf *config.Config, log *slog.Logger, srv *web.Server) {
	httpSrv := srv.HTTPServer()
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", httpSrv.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", httpSrv.Addr, err)
			}
			go func() {
				if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("failed to serve", "error", err)
				}
			}()

			url := fmt.Sprintf("http://localhost:%d/", cnf.App.Port)
			log.Info("serving web client", "url", url)
			if s.open {
				if err := browser.OpenURL(url); err != nil {
					log.Warn("failed to open browser", "url", url, "error", err)
				}
			}

			return nil
		},
		OnStop: func(ctx context.Context) error {
			defer logger.Flush()
			return httpSrv.Shutdown(ctx)
		},
	})
}
