package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/john/guildlog/internal/config"
	"github.com/john/guildlog/internal/discord"
	"github.com/john/guildlog/internal/dispatch"
	"github.com/john/guildlog/internal/filter"
	"github.com/john/guildlog/internal/health"
	"github.com/john/guildlog/internal/logging"
	"github.com/john/guildlog/internal/metrics"
	"github.com/john/guildlog/internal/notifier"
	"github.com/john/guildlog/internal/pipeline"
	"github.com/john/guildlog/internal/recorder"
	"github.com/john/guildlog/internal/resolver"
	"github.com/john/guildlog/internal/uploader"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cmd := &cli.Command{
		Name:  "guildlog",
		Usage: "Discord guild audit logger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Sources: cli.EnvVars("CONFIG_PATH"),
				Usage:   "Path to the YAML config file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Usage:   "Override log level (debug, info, warn, error)",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logging.Fatal("%v", err)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	logging.Info("Guildlog starting...")

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
	logging.Info("Configuration loaded, monitoring guild %s, log channel %s", cfg.Discord.GuildID, cfg.Discord.LogChannelID)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	conn, err := discord.New(cfg.Discord.Token, cfg.Discord.GuildID, cfg.Discord.MessageCacheMax)
	if err != nil {
		return err
	}

	rec := recorder.New(cfg.Recorder.OutputDir)
	delivery := notifier.NewDeliveryContext(conn.Session(), conn.Session().State, cfg.Discord.LogChannelID)
	sink := dispatch.New(cfg.Discord.GuildID, rec, notifier.New(delivery, cfg.Pipeline.SendTimeout()), m)
	res := resolver.New(discord.NewAuditTrail(conn.Session()), cfg.Pipeline.LookupTimeout(), m)
	proc := pipeline.New(filter.New(cfg.Discord.GuildID), res, sink, m)

	var archiver *uploader.Uploader
	if cfg.ArchiveEnabled() {
		archiver, err = uploader.New(ctx, uploader.Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			RoleARN:         cfg.S3.RoleARN,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			MaxRetries:      cfg.Uploader.MaxRetries,
		}, m)
		if err != nil {
			return fmt.Errorf("create uploader: %w", err)
		}
	}

	healthServer := health.New(cfg.Health.Addr, m.Handler())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := conn.Start(gctx, proc)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if archiver != nil {
		g.Go(func() error {
			err := archiver.Start(gctx, rec.Dir(), cfg.Uploader.CheckInterval())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		return healthServer.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutdown signal received, initiating graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Error shutting down health server: %v", err)
		}
		return nil
	})

	logging.Info("All components started successfully")

	if err := g.Wait(); err != nil {
		return err
	}
	logging.Info("Guildlog stopped")
	return nil
}
