package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"verbquiz-service/internal/app"
	"verbquiz-service/internal/config"
	transport "verbquiz-service/internal/transport/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", transport.NewWSHandler(b.service).ServeWS)
	transport.NewRESTHandler(b.service, []byte(cfg.Server.SessionSecret)).Register(mux)

	// GET /api/game?wait=1 may hold the response for the whole provider call.
	loadTimeout := config.TTLDuration(cfg.Provider.Timeout, app.DefaultLoadTimeout)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: loadTimeout + 15*time.Second,
	}
	idle := config.TTLDuration(cfg.Server.SessionIdleTTL, 30*time.Minute)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting verb quiz on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		runJanitor(gctx, b.service, idle)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// runJanitor ends idle sessions until ctx is done.
func runJanitor(ctx context.Context, service *app.QuizService, idle time.Duration) {
	interval := idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := service.Sweep(ctx, now, idle); n > 0 {
				log.Printf("swept %d idle sessions", n)
			}
		}
	}
}
