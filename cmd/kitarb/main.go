package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rewired-gh/kitarb/internal/backpack"
	"github.com/rewired-gh/kitarb/internal/batch"
	"github.com/rewired-gh/kitarb/internal/catalog"
	"github.com/rewired-gh/kitarb/internal/config"
	"github.com/rewired-gh/kitarb/internal/logger"
	"github.com/rewired-gh/kitarb/internal/models"
	"github.com/rewired-gh/kitarb/internal/ranking"
	"github.com/rewired-gh/kitarb/internal/report"
	"github.com/rewired-gh/kitarb/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	once       = flag.Bool("once", false, "Run a single batch even if analysis.interval is set")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	kitTypes, err := cfg.KitTypes()
	if err != nil {
		logger.Fatal("Invalid kit types: %v", err)
	}

	client := backpack.NewClient(cfg.Backpack.APIURL, backpack.ClientConfig{
		Token:          cfg.Backpack.Token,
		Timeout:        cfg.Backpack.Timeout,
		Throttle:       cfg.Backpack.Throttle,
		CacheTTL:       cfg.Backpack.CacheTTL,
		PriceMode:      backpack.PriceMode(cfg.Backpack.PriceMode),
		PageSize:       cfg.Backpack.PageSize,
		MaxRetries:     cfg.Backpack.MaxRetries,
		RetryDelayBase: cfg.Backpack.RetryDelayBase,
	})

	var quotes backpack.Quoter = client
	if len(cfg.Pricing.Overrides) > 0 {
		var next backpack.Quoter
		if cfg.Backpack.Token != "" {
			next = client
		}
		static, err := backpack.NewStaticQuotes(cfg.OverrideLabels(), next)
		if err != nil {
			logger.Fatal("Invalid price overrides: %v", err)
		}
		logger.Info("Using %d price overrides", static.Len())
		quotes = static
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, discarding pending work...")
		cancel()
	}()

	keyPrice, err := resolveKeyPrice(ctx, cfg, client)
	if err != nil {
		logger.Fatal("Failed to determine key price: %v", err)
	}
	registry, err := catalog.NewRegistry(keyPrice)
	if err != nil {
		logger.Fatal("Failed to build kit catalog: %v", err)
	}

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		telegramClient.ListenForCommands(ctx)
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	runner := batch.New(quotes, registry, batch.Config{
		Workers:  cfg.Analysis.Workers,
		FailFast: cfg.Analysis.FailFast,
	})

	if cfg.Analysis.Interval == 0 || *once {
		if err := runAnalysis(ctx, cfg, runner, kitTypes, telegramClient); err != nil {
			logger.Error("Analysis failed: %v", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("Starting periodic analysis (interval: %v, items: %d)", cfg.Analysis.Interval, len(cfg.Analysis.Items))

	ticker := time.NewTicker(cfg.Analysis.Interval)
	defer ticker.Stop()

	consecutiveFailures := 0
	handleRunResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Analysis failed: %v", err)
			if consecutiveFailures == 1 && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
			return
		}
		if consecutiveFailures > 0 && telegramClient != nil {
			if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
				logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
			}
		}
		consecutiveFailures = 0
	}

	handleRunResult(runAnalysis(ctx, cfg, runner, kitTypes, telegramClient))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return
		case <-ticker.C:
			// Reload between batches only; Run pins the catalog while it works.
			if cfg.Pricing.KeyPriceRef == 0 {
				if k, err := resolveKeyPrice(ctx, cfg, client); err != nil {
					logger.Warn("Keeping key price %.2f ref: %v", registry.Current().KeyPriceRef(), err)
				} else if err := registry.Reload(k); err != nil {
					logger.Warn("Failed to reload kit catalog: %v", err)
				}
			}
			handleRunResult(runAnalysis(ctx, cfg, runner, kitTypes, telegramClient))
		}
	}
}

// resolveKeyPrice returns the configured key price, or detects it from listings.
func resolveKeyPrice(ctx context.Context, cfg *config.Config, client *backpack.Client) (float64, error) {
	if cfg.Pricing.KeyPriceRef > 0 {
		return cfg.Pricing.KeyPriceRef, nil
	}
	if !cfg.Pricing.AutoDetectKeyPrice {
		return 0, &models.ConfigurationError{Field: "pricing.key_price_ref", Reason: "not set and auto-detect disabled"}
	}
	return client.DetectKeyPrice(ctx)
}

func runAnalysis(
	ctx context.Context,
	cfg *config.Config,
	runner *batch.Runner,
	kitTypes []models.KitType,
	telegramClient *telegram.Client,
) error {
	res, runErr := runner.Run(ctx, cfg.Analysis.Items, kitTypes)
	if runErr != nil && errors.Is(runErr, context.Canceled) {
		logger.Warn("Batch cancelled; reporting %d completed records", len(res.Records))
	}

	opts := report.Options{
		TopN: cfg.Analysis.TopN,
		Thresholds: ranking.Thresholds{
			MinProfitRef: cfg.Analysis.MinProfitRef,
			MinROI:       cfg.Analysis.MinROI,
		},
	}
	if err := writeReport(cfg.Report, res, opts); err != nil {
		return err
	}

	highlights := opts.Thresholds.Highlight(res.Records, opts.TopN)
	logger.Info("%d of %d upgrades clear the profit thresholds", len(highlights), len(res.Records))

	if telegramClient != nil && len(highlights) > 0 {
		if err := telegramClient.Send(highlights, res.KeyPriceRef, res.FinishedAt); err != nil {
			logger.Error("Failed to send Telegram notification: %v", err)
		} else {
			logger.Info("Sent Telegram notification with %d upgrades", len(highlights))
		}
	}

	if runErr != nil {
		return runErr
	}
	if len(res.Records) == 0 && len(res.Failures) > 0 {
		return fmt.Errorf("all %d evaluations failed", len(res.Failures))
	}
	return nil
}

func writeReport(rc config.ReportConfig, res *batch.Result, opts report.Options) error {
	var w io.Writer = os.Stdout
	if rc.OutputPath != "" {
		f, err := os.Create(rc.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if rc.Format == "json" {
		return report.WriteJSON(w, res, opts)
	}
	return report.WriteText(w, res, opts)
}
