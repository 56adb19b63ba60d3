package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/memedex/config"
	"github.com/mohammad-safakhou/memedex/internal/controller"
	"github.com/mohammad-safakhou/memedex/internal/fetch"
	"github.com/mohammad-safakhou/memedex/internal/resolve"
	"github.com/mohammad-safakhou/memedex/internal/server"
	"github.com/mohammad-safakhou/memedex/internal/session"
	"github.com/mohammad-safakhou/memedex/internal/session/inmemory"
	redisstore "github.com/mohammad-safakhou/memedex/internal/session/redis"
	"github.com/mohammad-safakhou/memedex/models"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the meme resolution gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (defaults apply without one)")
	return serve
}

func runServe(cfg *config.Config) error {
	fetcher := fetch.New(cfg.Fetch, log.New(os.Stdout, "[FETCH] ", log.LstdFlags))

	kym, err := resolve.NewResolver(models.SourceKYM, cfg.Sources.For(models.SourceKYM),
		cfg.Matching, cfg.General.SummaryMaxLength, fetcher,
		log.New(os.Stdout, "[KYM] ", log.LstdFlags))
	if err != nil {
		return err
	}
	memepedia, err := resolve.NewResolver(models.SourceMemepedia, cfg.Sources.For(models.SourceMemepedia),
		cfg.Matching, cfg.General.SummaryMaxLength, fetcher,
		log.New(os.Stdout, "[MEMEPEDIA] ", log.LstdFlags))
	if err != nil {
		return err
	}
	orch, err := resolve.NewOrchestrator(log.New(os.Stdout, "[ORCH] ", log.LstdFlags), kym, memepedia)
	if err != nil {
		return err
	}

	var store session.Store
	switch cfg.Session.Backend {
	case "redis":
		client, err := redisstore.Conn(context.Background(), cfg.Session.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		store = redisstore.NewStore(client, cfg.Session.TTL)
	default:
		mem := inmemory.NewStore(cfg.Session.TTL)
		defer mem.Close()
		store = mem
	}

	out := server.NewResponder(cfg.Server, log.New(os.Stdout, "[OUT] ", log.LstdFlags))
	ctrl := controller.New(orch, store, out, cfg, log.New(os.Stdout, "[CTRL] ", log.LstdFlags))
	srv := server.New(cfg, ctrl, log.New(os.Stdout, "[HTTP] ", log.LstdFlags))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		log.Printf("received %s, shutting down", s)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		return <-errCh
	}
}
