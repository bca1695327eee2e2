package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/richard-senior/matchodds/internal/app"
	"github.com/richard-senior/matchodds/internal/config"
	"github.com/richard-senior/matchodds/internal/feed"
	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/server"
	"github.com/richard-senior/matchodds/pkg/transport"
)

const usage = `usage: matchodds-mcp [mode]

modes:
  (none)           serve MCP over stdio
  serve-http       serve JSON-RPC and the league api over http
  consume-results  apply settled fixtures from the AMQP results queue

The configuration file is read from $MATCHODDS_CONFIG when set.`

func main() {
	cfg, err := config.Load(os.Getenv("MATCHODDS_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	config.UpdateConfig(cfg)

	// Set log output before any logging occurs, stdout belongs to the protocol in stdio mode
	if err := app.ConfigureLogging(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	mode := ""
	if len(os.Args) > 1 {
		mode = os.Args[1]
		for i, arg := range os.Args[1:] {
			logger.Debug(fmt.Sprintf("Argument %d:", i+1), arg)
		}
	}
	logger.Info("Starting matchodds", mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Startup failed:", err)
		os.Exit(1)
	}
	defer a.Close()

	switch mode {
	case "":
		s := server.New(transport.NewStdioTransport(), a.Service)
		if err = s.Start(ctx); errors.Is(err, io.EOF) {
			err = nil
		}
	case "serve-http":
		s := server.New(nil, a.Service)
		err = s.ListenAndServe(ctx, server.HTTPOptions{
			Addr:           cfg.HTTPAddr,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			RequestTimeout: cfg.RequestTimeout,
		})
	case "consume-results":
		c := feed.NewConsumer(feed.Options{
			URL:        cfg.AMQPURL,
			Exchange:   cfg.AMQPExchange,
			Queue:      cfg.AMQPQueue,
			RoutingKey: cfg.AMQPRoutingKey,
			Prefetch:   cfg.AMQPPrefetch,
		}, a.Ledger)
		err = c.Run(ctx)
	default:
		fmt.Fprintln(os.Stderr, usage)
		a.Close()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Server error:", err)
		a.Close()
		os.Exit(1)
	}
	logger.Info("matchodds shutting down")
}
