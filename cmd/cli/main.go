// Command cli runs one notification cycle from a workstation, for testing
// the wiring or backfilling a missed month.
//
// Usage:
//
//	notify-billing-cli [-at RFC3339] [-dry-run]
//
// -at overrides the invocation time (the reporting period is derived from
// it), -dry-run prints the composed message instead of posting it.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/finops-claw-gang/billing-notify/internal/config"
	awsconn "github.com/finops-claw-gang/billing-notify/internal/connectors/aws"
	"github.com/finops-claw-gang/billing-notify/internal/connectors/aws/costexplorer"
	"github.com/finops-claw-gang/billing-notify/internal/connectors/discord"
	"github.com/finops-claw-gang/billing-notify/internal/connectors/exchangerate"
	"github.com/finops-claw-gang/billing-notify/internal/notifier"
	"github.com/finops-claw-gang/billing-notify/internal/observability"
	"github.com/finops-claw-gang/billing-notify/internal/report"
)

func main() {
	at := flag.String("at", "", "invocation time override, RFC3339 (default now)")
	dryRun := flag.Bool("dry-run", false, "print the message instead of posting it")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "notify-billing-cli: %v\n", err)
		os.Exit(1)
	}
	logger := observability.InitLogger(cfg.LogLevel)

	now := time.Now
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Fprintf(os.Stderr, "notify-billing-cli: invalid -at %q: %v\n", *at, err)
			os.Exit(1)
		}
		now = func() time.Time { return t }
	}

	ctx := context.Background()
	awsCfg, err := awsconn.NewConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   cfg.StepTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var rates notifier.RateSource
	if cfg.FXRateURL != "" {
		rates = exchangerate.NewWithHTTPClient(cfg.FXRateURL, httpClient)
	}

	var sink notifier.MessageSink = discord.NewWithHTTPClient(cfg.WebhookURL, cfg.Mention, httpClient)
	if *dryRun {
		sink = printSink{}
	}

	n := notifier.New(notifier.Params{
		Costs: costexplorer.New(awsCfg),
		Rates: rates,
		Sink:  sink,
		Report: report.Options{
			TargetCurrency: cfg.TargetCurrency,
			TopServices:    cfg.TopServices,
		},
		Location:    cfg.Location,
		StepTimeout: cfg.StepTimeout,
		Now:         now,
		Logger:      logger,
	})

	if err := n.Run(ctx); err != nil {
		logger.Error("notification run failed", "error", err)
		os.Exit(1)
	}
}

// printSink writes the composed message to stdout instead of delivering it.
type printSink struct{}

func (printSink) Post(_ context.Context, msg report.Message) error {
	fmt.Println(msg.Title)
	if msg.Body != "" {
		fmt.Println()
		fmt.Println(msg.Body)
	}
	if msg.Footer != "" {
		fmt.Println()
		fmt.Println(msg.Footer)
	}
	return nil
}
