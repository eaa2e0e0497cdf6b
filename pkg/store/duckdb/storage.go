package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const CostLinesSchema = `
	CREATE TABLE IF NOT EXISTS cost_lines (
		snapshot VARCHAR NOT NULL,
		usage_date VARCHAR NOT NULL,
		subscription_id VARCHAR,
		subscription_name VARCHAR,
		resource_id VARCHAR,
		resource_name VARCHAR,
		resource_group VARCHAR,
		meter_category VARCHAR,
		meter_subcategory VARCHAR,
		meter_name VARCHAR,
		cost_local DOUBLE,
		cost_usd DOUBLE,
		currency VARCHAR
	);
`

var bootQueries = []string{
	CostLinesSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		bootQueries := append([]string{}, bootQueries...)

		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
