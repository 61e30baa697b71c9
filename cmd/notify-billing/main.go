// Command notify-billing is the Lambda entrypoint for the monthly AWS cost
// notification. An EventBridge schedule fires it once per month at 09:00
// Asia/Tokyo; the trigger event carries no payload, so the handler ignores
// it and reports on the previous calendar month.
//
// EventBridge scheduled rules do not retry a failed invocation by default,
// so a transient webhook failure loses that month's message unless a retry
// policy is configured on the target.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
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
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.InitLogger(cfg.LogLevel)

	ctx := context.Background()
	if cfg.OTelEnabled {
		shutdown, err := observability.InitTracer(ctx, "notify-billing")
		if err != nil {
			logger.Error("failed to init tracing", "error", err)
			os.Exit(1)
		}
		defer shutdown(ctx)
	}

	n, err := buildNotifier(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build notifier", "error", err)
		os.Exit(1)
	}

	lambda.Start(func(ctx context.Context) error {
		if err := n.Run(ctx); err != nil {
			logger.Error("notification run failed", "error", err)
			return err
		}
		return nil
	})
}

func buildNotifier(ctx context.Context, cfg config.Config, logger *slog.Logger) (*notifier.Notifier, error) {
	awsCfg, err := awsconn.NewConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout:   cfg.StepTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var rates notifier.RateSource
	if cfg.FXRateURL != "" {
		rates = exchangerate.NewWithHTTPClient(cfg.FXRateURL, httpClient)
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}

	return notifier.New(notifier.Params{
		Costs: costexplorer.New(awsCfg),
		Rates: rates,
		Sink:  discord.NewWithHTTPClient(cfg.WebhookURL, cfg.Mention, httpClient),
		Report: report.Options{
			TargetCurrency: cfg.TargetCurrency,
			TopServices:    cfg.TopServices,
		},
		Location:    cfg.Location,
		StepTimeout: cfg.StepTimeout,
		Logger:      logger,
		Metrics:     metrics,
	}), nil
}
