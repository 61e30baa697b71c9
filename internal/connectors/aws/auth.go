// Package aws provides shared AWS configuration and credential wiring.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/finops-claw-gang/billing-notify/internal/config"
)

// NewConfig builds an aws.Config for the notifier: configured region,
// optional shared-config profile, and optional cross-account role assumed
// via STS when the billing data lives in another account.
func NewConfig(ctx context.Context, cfg config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSProfile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
	}

	out, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("aws auth: load config: %w", err)
	}

	if cfg.CrossAccountRole != "" {
		out.Credentials = stscreds.NewAssumeRoleProvider(sts.NewFromConfig(out), cfg.CrossAccountRole)
	}

	return out, nil
}
