package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/richard-senior/matchodds/internal/app"
	"github.com/richard-senior/matchodds/internal/config"
	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/internal/processor"
)

func main() {
	// Parse command line flags
	debug := flag.Bool("debug", false, "Enable debug logging")
	configFile := flag.String("config", os.Getenv("MATCHODDS_CONFIG"), "Optional yaml configuration file")
	inputFile := flag.String("input", "", "Fixtures JSON file (if not provided, stdin will be used)")
	outputFile := flag.String("output", "", "Output file path (if not provided, stdout will be used)")
	format := flag.String("format", processor.FormatJSON, "Output format: json or markdown")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	// console logging shares stdout with the result
	if cfg.LogOutput == "c" && *outputFile == "" {
		cfg.LogOutput = "f"
	}
	if err := app.ConfigureLogging(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Info("Starting matchodds batch run")

	// Determine input source
	var input []byte
	if *inputFile != "" {
		input, err = os.ReadFile(*inputFile)
		if err != nil {
			logger.Fatal("Failed to read input file", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			logger.Fatal("Failed to read from stdin", err)
		}
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Startup failed", err)
	}
	defer a.Close()

	p := processor.New(a.Service.Enricher, a.Service.Engine)
	result, err := p.ProcessRequest(ctx, input, *format)
	if err != nil {
		logger.Error("Failed to process request", err)
		fmt.Fprintln(os.Stderr, err)
		a.Close()
		os.Exit(1)
	}

	// Determine output destination
	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, result, 0644); err != nil {
			logger.Fatal("Failed to write to output file", err)
		}
	} else {
		fmt.Print(string(result))
	}

	logger.Info("Batch run completed successfully")
}
