// Package costexplorer wraps the AWS Cost Explorer API behind the read-only
// capability the notifier needs, satisfying notifier.CostSource.
package costexplorer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/finops-claw-gang/billing-notify/internal/domain"
)

// metricAmortizedCost smooths upfront RI/SP charges across the month,
// matching what the billing console reports.
const metricAmortizedCost = "AmortizedCost"

// API is the subset of the Cost Explorer client used by this package.
// It is deliberately limited to GetCostAndUsage so the code surface matches
// the read-only execution role.
type API interface {
	GetCostAndUsage(ctx context.Context, params *ce.GetCostAndUsageInput, optFns ...func(*ce.Options)) (*ce.GetCostAndUsageOutput, error)
}

// Client wraps the Cost Explorer API.
type Client struct {
	api API
}

// New creates a Cost Explorer client from an AWS config.
func New(cfg aws.Config) *Client {
	return &Client{api: ce.NewFromConfig(cfg)}
}

// NewFromAPI creates a Client from an explicit API implementation (for testing).
func NewFromAPI(api API) *Client {
	return &Client{api: api}
}

// MonthlyReport returns the amortized cost for the period in the account's
// billing currency: the month total plus a per-service breakdown.
func (c *Client) MonthlyReport(ctx context.Context, period domain.Period) (domain.CostReport, error) {
	total, currency, err := c.totalCost(ctx, period)
	if err != nil {
		return domain.CostReport{}, err
	}

	services, err := c.serviceCosts(ctx, period)
	if err != nil {
		return domain.CostReport{}, err
	}

	return domain.CostReport{
		Period:   period,
		Currency: currency,
		Total:    total,
		Services: services,
	}, nil
}

func (c *Client) totalCost(ctx context.Context, period domain.Period) (float64, string, error) {
	out, err := c.api.GetCostAndUsage(ctx, &ce.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(period.StartDate()),
			End:   aws.String(period.EndDate()),
		},
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{metricAmortizedCost},
	})
	if err != nil {
		return 0, "", fmt.Errorf("costexplorer: get total cost: %w", err)
	}
	if len(out.ResultsByTime) == 0 {
		return 0, "", fmt.Errorf("costexplorer: no results for %s to %s", period.StartDate(), period.EndDate())
	}

	mv, ok := out.ResultsByTime[0].Total[metricAmortizedCost]
	if !ok || mv.Amount == nil {
		return 0, "", fmt.Errorf("costexplorer: missing %s in total", metricAmortizedCost)
	}

	amount, err := strconv.ParseFloat(*mv.Amount, 64)
	if err != nil {
		return 0, "", fmt.Errorf("costexplorer: parse total amount: %w", err)
	}

	currency := "USD"
	if mv.Unit != nil && *mv.Unit != "" {
		currency = *mv.Unit
	}
	return amount, currency, nil
}

func (c *Client) serviceCosts(ctx context.Context, period domain.Period) ([]domain.ServiceCost, error) {
	out, err := c.api.GetCostAndUsage(ctx, &ce.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(period.StartDate()),
			End:   aws.String(period.EndDate()),
		},
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{metricAmortizedCost},
		GroupBy: []cetypes.GroupDefinition{
			{Type: cetypes.GroupDefinitionTypeDimension, Key: aws.String("SERVICE")},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("costexplorer: get service costs: %w", err)
	}
	if len(out.ResultsByTime) == 0 {
		return nil, fmt.Errorf("costexplorer: no grouped results for %s to %s", period.StartDate(), period.EndDate())
	}

	var services []domain.ServiceCost
	for _, group := range out.ResultsByTime[0].Groups {
		if len(group.Keys) == 0 {
			continue
		}
		mv, ok := group.Metrics[metricAmortizedCost]
		if !ok || mv.Amount == nil {
			continue
		}
		amount, err := strconv.ParseFloat(*mv.Amount, 64)
		if err != nil {
			return nil, fmt.Errorf("costexplorer: parse amount for %s: %w", group.Keys[0], err)
		}
		services = append(services, domain.ServiceCost{Service: group.Keys[0], Amount: amount})
	}
	return services, nil
}
