package azure

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/de-tools/cost-lens/pkg/models/domain"
	"github.com/de-tools/cost-lens/pkg/services/collect"
	"github.com/rs/zerolog"
)

// Columns requested from the cost query, in order. UsageDate arrives as a
// numeric value; the normalizer resolves it.
var groupings = []string{
	"ResourceId",
	"ResourceGroupName",
	"MeterCategory",
	"MeterSubCategory",
	"Meter",
}

type Config struct {
	SubscriptionID   string
	SubscriptionName string
}

type collector struct {
	costFactory *armcostmanagement.ClientFactory
	config      Config
	scope       string
}

// NewCollector builds an Azure Cost Management collector for one
// subscription, authenticating with the default credential chain.
func NewCollector(config Config) (collect.Collector, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure credential: %w", err)
	}

	factory, err := armcostmanagement.NewClientFactory(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client factory: %w", err)
	}

	return &collector{
		costFactory: factory,
		config:      config,
		scope:       fmt.Sprintf("/subscriptions/%s", config.SubscriptionID),
	}, nil
}

func (c *collector) Collect(ctx context.Context, days int) ([]domain.RawUsageRecord, error) {
	logger := zerolog.Ctx(ctx)
	client := c.costFactory.NewQueryClient()

	timeFrom := time.Now().AddDate(0, 0, -days)
	timeTo := time.Now()

	exportType := armcostmanagement.ExportTypeActualCost
	granularity := armcostmanagement.GranularityTypeDaily
	timeframe := armcostmanagement.TimeframeTypeCustom
	dimension := armcostmanagement.QueryColumnTypeDimension

	grouping := make([]*armcostmanagement.QueryGrouping, 0, len(groupings))
	for _, name := range groupings {
		grouping = append(grouping, &armcostmanagement.QueryGrouping{
			Name: to.Ptr(name),
			Type: &dimension,
		})
	}

	params := armcostmanagement.QueryDefinition{
		Type: &exportType,
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: &granularity,
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("Cost"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
				"totalCostUSD": {
					Name:     to.Ptr("CostUSD"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
			Grouping: grouping,
		},
		Timeframe: &timeframe,
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: &timeFrom,
			To:   &timeTo,
		},
	}

	result, err := client.Usage(ctx, c.scope, params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query costs: %w", err)
	}

	// Row layout: cost, costUSD, usage date, then the grouping columns,
	// then the currency code.
	wantColumns := 3 + len(groupings) + 1
	var records []domain.RawUsageRecord
	for _, row := range result.Properties.Rows {
		if len(row) < wantColumns {
			logger.Warn().Int("columns", len(row)).Msg("skipping short cost row")
			continue
		}

		records = append(records, domain.RawUsageRecord{
			CostLocal:        asFloat(row[0]),
			CostUSD:          asFloat(row[1]),
			Date:             row[2], // numeric usage date, resolved by the normalizer
			ResourceID:       asString(row[3]),
			ResourceGroup:    asString(row[4]),
			MeterCategory:    asString(row[5]),
			MeterSubcategory: asString(row[6]),
			MeterName:        asString(row[7]),
			SubscriptionID:   c.config.SubscriptionID,
			SubscriptionName: c.config.SubscriptionName,
			Currency:         asString(row[len(row)-1]),
		})
	}

	return records, nil
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
