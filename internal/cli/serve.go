package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/voiceagent/config"
	"github.com/hupe1980/voiceagent/transport/ws"
)

func newServeCmd(getConfig func(*cobra.Command) *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve turns over websocket",
		Long: `Start an HTTP server that accepts websocket connections and runs a
turn for every "turn" frame. Synthesized clips are retained per session
and served from /audio?session_id=...&turn_id=....

Examples:
  voiceagent serve
  voiceagent serve --addr :9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd)
			if addr != "" {
				cfg.Server.Addr = addr
			}

			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.agent.Close()

			handler := ws.NewHandler(a.agent, func(o *ws.Options) {
				o.TenantID = cfg.Tenant
				o.AgentID = cfg.Agent
				o.Persona = a.persona
				o.AllowedOrigins = cfg.Server.AllowedOrigins
				o.Logger = a.logger
			})

			mux := http.NewServeMux()
			mux.Handle(cfg.Server.Path, handler)
			mux.Handle("/audio", ws.NewAudioHandler(a.agent, ""))
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			})

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("server.listening", "addr", cfg.Server.Addr, "path", cfg.Server.Path)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("server.shutdown_failed", "error", err.Error())
			}
			_ = handler.Close()
			a.logger.Info("server.stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
