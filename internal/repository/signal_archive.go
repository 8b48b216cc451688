package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"SmartFolio/internal/domain/models"
	"SmartFolio/pkg/clickhouse"
)

const signalTableDDL = `
CREATE TABLE IF NOT EXISTS advisor_signals (
	advisor      LowCardinality(String),
	symbol       LowCardinality(String),
	signal       LowCardinality(String),
	confidence   LowCardinality(String),
	score        Float64,
	target_price Nullable(Float64),
	stop_loss    Nullable(Float64),
	reasoning    String,
	fetched_at   DateTime64(3, 'UTC')
) ENGINE = MergeTree()
ORDER BY (symbol, fetched_at)
TTL toDateTime(fetched_at) + INTERVAL 180 DAY
`

const signalInsert = `INSERT INTO advisor_signals
(advisor, symbol, signal, confidence, score, target_price, stop_loss, reasoning, fetched_at)`

// ClickHouseSignalArchive appends every fetched advisor signal to an
// append-only table, kept for offline advisor-accuracy analysis.
type ClickHouseSignalArchive struct {
	client *clickhouse.Client
}

func NewClickHouseSignalArchive(ctx context.Context, client *clickhouse.Client) (*ClickHouseSignalArchive, error) {
	if err := client.Exec(ctx, signalTableDDL); err != nil {
		return nil, fmt.Errorf("create advisor_signals table: %w", err)
	}
	return &ClickHouseSignalArchive{client: client}, nil
}

func (a *ClickHouseSignalArchive) Append(ctx context.Context, signals []models.AdvisorSignal) error {
	if len(signals) == 0 {
		return nil
	}
	batch, err := a.client.PrepareBatch(ctx, signalInsert)
	if err != nil {
		return fmt.Errorf("prepare signal batch: %w", err)
	}
	for _, s := range signals {
		if err := batch.Append(
			string(s.Advisor),
			s.Symbol,
			string(s.Signal),
			string(s.Confidence),
			s.Score,
			nullFloat(s.TargetPrice),
			nullFloat(s.StopLoss),
			s.Reasoning,
			s.FetchedAt,
		); err != nil {
			return fmt.Errorf("append signal: %w", err)
		}
	}
	return batch.Send()
}

func (a *ClickHouseSignalArchive) Close() error { return a.client.Close() }

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f, _ := d.Decimal.Float64()
	return &f
}
