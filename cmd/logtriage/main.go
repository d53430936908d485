package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"logtriage/internal/classify"
	"logtriage/internal/config"
	"logtriage/internal/pipeline"
	"logtriage/internal/report"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		runCommand(os.Args[2:])
	case "check":
		checkCommand(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: logtriage <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  run     Process a log file and print the triage report")
	fmt.Println("  check   Validate the configuration and exit")
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "triage.yaml", "Path to config file")
	input := fs.String("input", "-", "Log file path, glob pattern, or - for stdin")
	format := fs.String("format", "text", "Report format: text, json, yaml")
	out := fs.String("out", "", "Append the JSON report to this history file")
	workers := fs.Int("workers", 1, "Parallel classifier workers (state is merged deterministically)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	renderer, err := report.ForFormat(*format)
	if err != nil {
		logger.Fatal("Invalid format flag", zap.Error(err))
	}

	classifier, err := classify.New(cfg)
	if err != nil {
		logger.Fatal("Failed to build classifier", zap.Error(err))
	}

	logger.Debug("Starting triage run",
		zap.String("input", *input),
		zap.Int("categories", len(cfg.Categories)),
		zap.Int("workers", *workers))

	p := pipeline.New(classifier, cfg, *workers, logger)
	rep, err := p.Run(context.Background(), *input)
	if err != nil {
		logger.Fatal("Run failed", zap.Error(err))
	}

	rendered, err := renderer.Render(rep)
	if err != nil {
		logger.Fatal("Failed to render report", zap.Error(err))
	}
	fmt.Print(rendered)

	if *out != "" {
		history := report.NewHistory(*out)
		if err := history.Append(rep); err != nil {
			logger.Fatal("Failed to write history", zap.Error(err))
		}
		logger.Info("Report appended to history",
			zap.String("path", *out),
			zap.String("report_id", rep.ID))
	}
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "triage.yaml", "Path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config invalid: %v\n", err)
		os.Exit(1)
	}

	// Load compiles every pattern, so reaching here means the rule set is usable.
	fmt.Printf("Config OK: %d categories, bucket_by=%s\n", len(cfg.Categories), cfg.BucketBy)
}

// initLogger creates a configured zap logger
func initLogger(level string, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var loggerConfig zap.Config
	if format == "json" {
		loggerConfig = zap.NewProductionConfig()
	} else {
		loggerConfig = zap.NewDevelopmentConfig()
	}

	loggerConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	return loggerConfig.Build()
}
