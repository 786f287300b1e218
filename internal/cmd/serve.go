package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vasu1712/scenyx-studio/internal/api"
	"github.com/Vasu1712/scenyx-studio/internal/auth"
	"github.com/Vasu1712/scenyx-studio/internal/config"
	"github.com/Vasu1712/scenyx-studio/internal/ratelimit"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
	"github.com/Vasu1712/scenyx-studio/internal/storage/memory"
	"github.com/Vasu1712/scenyx-studio/internal/storage/postgres"
	"github.com/Vasu1712/scenyx-studio/internal/storage/valkey"
	"github.com/Vasu1712/scenyx-studio/internal/ws"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API and WebSocket relay",
	Long: `Run the HTTP API and the /ws/songs relay.

Without database.url songs are kept in memory. valkey.addr mirrors presence
for other processes, redis.url enables the chat rate limit and auth.secret
enables session tokens.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	deps := api.Deps{
		Store:         store,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		WS: ws.Settings{
			SendBuffer:     cfg.WS.SendBuffer,
			WriteWait:      cfg.WS.WriteWait,
			PongWait:       cfg.WS.PongWait,
			MaxMessageSize: cfg.WS.MaxMessageSize,
		},
	}

	var (
		mirror  ws.PresenceMirror
		hubOpts []ws.HubOption
	)
	if cfg.Valkey.Addr != "" {
		m, err := valkey.Dial(cfg.Valkey.Addr, cfg.Valkey.PresenceTTL)
		if err != nil {
			return err
		}
		defer m.Close()
		m.Start(ctx)
		defer func() {
			stop()
			m.Wait()
		}()
		mirror = m
		hubOpts = append(hubOpts, ws.WithMirrorRefresh(m.RefreshInterval()))
		deps.Presence = m
	}

	if cfg.Redis.URL != "" {
		client, err := ratelimit.Dial(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		deps.Limiter = ratelimit.NewLimiter(client, cfg.Chat.RateLimit, cfg.Chat.RateWindow)
	}

	if cfg.Auth.Secret != "" {
		deps.Tokens = auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)
		log.Println("[Server] Session tokens enabled")
	}

	hub := ws.NewHub(mirror, hubOpts...)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()
	deps.Hub = hub

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stop()
		<-hubDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Shutdown error: %v", err)
	}
	<-hubDone
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Database.URL == "" {
		log.Println("[Server] No database.url set, using in-memory store")
		return memory.NewStore(), nil
	}
	store, err := postgres.NewStore(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	return store, nil
}
