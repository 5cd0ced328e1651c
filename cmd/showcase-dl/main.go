package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yourusername/showcase-dl/api"
	"github.com/yourusername/showcase-dl/internal/app"
	"github.com/yourusername/showcase-dl/internal/domain"
	"github.com/yourusername/showcase-dl/internal/extract"
	"github.com/yourusername/showcase-dl/internal/infrastructure"
	"github.com/yourusername/showcase-dl/internal/ui"
	"github.com/yourusername/showcase-dl/pkg/logger"
)

const version = "1.0.0"

var (
	cfgFile   string
	referer   string
	verbosity int
	v         = viper.New()

	rootCmd = &cobra.Command{
		Use:     "showcase-dl <url>",
		Short:   "Download every video embedded in a page",
		Long:    `Discovers player embeds, showcases and live events on a page and downloads each video with yt-dlp, showing live progress.`,
		Version: version,
		Args:    cobra.ExactArgs(1),
		RunE:    runDownload,

		SilenceUsage: true,
	}
)

func init() {
	defaults := domain.DefaultConfig()
	flags := rootCmd.Flags()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.config/showcase-dl/config.yaml)")

	flags.StringVar(&referer, "referer", "", "Referer header for embedded players (default: origin of the page)")
	flags.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v warn, -vv info, -vvv debug)")
	flags.Duration("tick", defaults.Dashboard.Tick, "Dashboard render interval")
	flags.String("downloader", defaults.Downloader.Binary, "Downloader binary")
	flags.StringArray("downloader-option", nil, "Extra downloader argument, repeatable")
	flags.String("log-file", defaults.Logging.OutputPath, "Log file")
	flags.String("log-level", defaults.Logging.Level, "Base log level (debug, info, warn, error)")
	flags.String("status-addr", "", "Serve the status API on this address, e.g. 127.0.0.1:8080")
	flags.Bool("notify", defaults.Notification.Enabled, "Send a desktop notification per finished video")

	for key, flag := range map[string]string{
		"dashboard.tick":       "tick",
		"downloader.binary":    "downloader",
		"downloader.options":   "downloader-option",
		"logging.output_path":  "log-file",
		"logging.level":        "log-level",
		"status.addr":          "status-addr",
		"notification.enabled": "notify",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDownload(cmd *cobra.Command, args []string) error {
	pageURL := args[0]
	if _, err := extract.ValidateURL(pageURL); err != nil {
		return err
	}

	config, err := app.LoadConfigWith(v, cfgFile)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:      logger.LevelForVerbosity(config.Logging.Level, verbosity),
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	console, err := ui.NewTerminal(os.Stdin, os.Stdout)
	if err != nil {
		return fmt.Errorf("an interactive terminal is required: %w", err)
	}

	log.Info("Starting showcase-dl",
		zap.String("version", version),
		zap.String("url", pageURL),
		zap.String("downloader", config.Downloader.Binary),
		zap.Strings("downloader_options", config.Downloader.Options))

	registry := domain.NewRegistry()
	signaler := infrastructure.NewUnixSignaler()
	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	downloader := infrastructure.NewYTDLPDownloader(&config.Downloader, signaler, notifier, log)

	fetcher, err := infrastructure.NewHTTPFetcher(&config.Fetch, log)
	if err != nil {
		return err
	}

	pipeline := app.NewPipeline(registry, downloader, log)
	extractor := extract.NewExtractor(fetcher, pipeline, registry, log)
	coordinator := app.NewShutdownCoordinator(registry, signaler, config.Shutdown.PollInterval, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.Status.Addr != "" {
		router := api.SetupRouter(ctx, registry, coordinator, config.Dashboard.Tick, log)
		server, err := api.NewServer(config.Status.Addr, router, log)
		if err != nil {
			return err
		}
		server.Start()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("Status API forced to shutdown", zap.Error(err))
			}
		}()
	}

	// raw mode turns Ctrl-C into a key, these only arrive from outside
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	dashboard := ui.NewDashboard(console, registry, coordinator, config.Dashboard.Tick, log).WithSignals(signals)
	err = dashboard.Run(ctx, func(ctx context.Context) error {
		return pipeline.Run(ctx, extractor, pageURL, referer)
	})

	fmt.Fprint(os.Stdout, ui.RenderSummary(registry.Snapshot(), console.Colorize()))

	if err != nil {
		log.Error("Pipeline failed", zap.Error(err))
		return err
	}

	log.Info("Exiting")
	return nil
}
