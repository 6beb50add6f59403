package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Martig3/valorant-matchbot/internal/config"
	"github.com/Martig3/valorant-matchbot/internal/coordinator"
	"github.com/Martig3/valorant-matchbot/internal/discord"
	"github.com/Martig3/valorant-matchbot/internal/dispatch"
	"github.com/Martig3/valorant-matchbot/internal/httpapi"
	"github.com/Martig3/valorant-matchbot/internal/reminder"
	"github.com/Martig3/valorant-matchbot/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("matchbot stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) (err error) {
	blob, closer, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { err = multierr.Append(err, closer.Close()) }()
	log.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	bot, err := discord.New(cfg.Discord, log.Named("discord"))
	if err != nil {
		return err
	}

	svc, err := coordinator.New(ctx, blob, bot.Members(), coordinator.Options{
		AdminRole:    cfg.Discord.AdminRoleID,
		MapPoolLimit: cfg.MapPoolLimit,
		PostSetupMsg: cfg.PostSetupMsg,
	}, log)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	defer svc.Close()

	var rem *reminder.Reminder
	if cfg.Reminder.Enabled() {
		if rem, err = reminder.New(cfg.Reminder, svc, bot, log.Named("reminder")); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bot.Run(gctx, dispatch.NewDispatcher(svc, log.Named("dispatch")))
	})

	if cfg.HTTP.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpapi.SetupRoutes(svc, log.Named("http")),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Info("listening", zap.String("addr", cfg.HTTP.Addr))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if rem != nil {
		g.Go(func() error { return rem.Run(gctx) })
	}

	return g.Wait()
}
