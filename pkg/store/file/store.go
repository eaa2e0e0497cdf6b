package file

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/de-tools/cost-lens/pkg/models/domain"
)

// Load reads a JSON array of raw cost records, the offline/fixture snapshot
// path. Dates keep whatever encoding the file carries.
func Load(path string) ([]domain.RawUsageRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var records []domain.RawUsageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file %s: %w", path, err)
	}
	return records, nil
}
