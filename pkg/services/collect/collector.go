package collect

import (
	"context"

	"github.com/de-tools/cost-lens/pkg/models/domain"
)

// Collector pulls raw cost line items from a cloud provider. Records keep
// whatever field shapes the provider delivers; normalization happens in the
// report engine.
type Collector interface {
	Collect(ctx context.Context, days int) ([]domain.RawUsageRecord, error)
}
