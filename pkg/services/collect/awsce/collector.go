package awsce

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/de-tools/cost-lens/pkg/services/collect"
	"github.com/rs/zerolog"
)

type Config struct {
	Profile     string
	AccountID   string
	AccountName string
}

type collector struct {
	client *costexplorer.Client
	config Config
}

// NewCollector builds an AWS Cost Explorer collector. The linked account
// maps onto the fact model's subscription; SERVICE and USAGE_TYPE map onto
// the meter taxonomy.
func NewCollector(ctx context.Context, config Config) (collect.Collector, error) {
	cfg, err := LoadConfig(ctx, config.Profile)
	if err != nil {
		return nil, err
	}

	return &collector{
		client: costexplorer.NewFromConfig(*cfg),
		config: config,
	}, nil
}

func (c *collector) Collect(ctx context.Context, days int) ([]domain.RawUsageRecord, error) {
	logger := zerolog.Ctx(ctx)

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(start.Format("2006-01-02")),
			End:   aws.String(end.Format("2006-01-02")),
		},
		Granularity: types.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
		Filter: &types.Expression{
			Not: &types.Expression{
				Dimensions: &types.DimensionValues{
					Key:    types.DimensionRecordType,
					Values: []string{"Credit", "Refund"},
				},
			},
		},
		GroupBy: []types.GroupDefinition{
			{
				Type: types.GroupDefinitionTypeDimension,
				Key:  aws.String("SERVICE"),
			},
			{
				Type: types.GroupDefinitionTypeDimension,
				Key:  aws.String("USAGE_TYPE"),
			},
		},
	}

	var records []domain.RawUsageRecord
	for {
		result, err := c.client.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get cost and usage: %w", err)
		}

		for _, byTime := range result.ResultsByTime {
			day := aws.ToString(byTime.TimePeriod.Start)
			for _, group := range byTime.Groups {
				if len(group.Keys) < 2 {
					continue
				}
				metric, ok := group.Metrics["UnblendedCost"]
				if !ok {
					continue
				}
				amount, err := strconv.ParseFloat(aws.ToString(metric.Amount), 64)
				if err != nil {
					logger.Warn().
						Str("amount", aws.ToString(metric.Amount)).
						Msg("skipping cost group with unparseable amount")
					continue
				}

				service := group.Keys[0]
				usageType := group.Keys[1]
				records = append(records, domain.RawUsageRecord{
					Date:             day,
					SubscriptionID:   c.config.AccountID,
					SubscriptionName: c.config.AccountName,
					MeterCategory:    service,
					MeterSubcategory: usageTypeFamily(usageType),
					MeterName:        usageType,
					CostLocal:        amount,
					CostUSD:          amount,
					Currency:         aws.ToString(metric.Unit),
				})
			}
		}

		if aws.ToString(result.NextPageToken) == "" {
			return records, nil
		}
		input.NextPageToken = result.NextPageToken
	}
}

// usageTypeFamily strips the instance suffix and the region prefix of a
// usage type, e.g. "EUW2-BoxUsage:t3.micro" → "BoxUsage". Region codes carry
// a digit ("USE1", "EUW2"); families like "DataTransfer-Out-Bytes" do not and
// stay intact.
func usageTypeFamily(usageType string) string {
	family := usageType
	if at := strings.Index(family, ":"); at >= 0 {
		family = family[:at]
	}
	if at := strings.Index(family, "-"); at > 0 && at <= 5 && at+1 < len(family) {
		if strings.ContainsAny(family[:at], "0123456789") {
			family = family[at+1:]
		}
	}
	return family
}
