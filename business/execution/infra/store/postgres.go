// Package store persists execution outcomes.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/crosspool/poolarb/business/execution/domain"
	"github.com/crosspool/poolarb/internal/apperror"
	"github.com/crosspool/poolarb/internal/logger"
)

// Schema for the outcomes table. Applied on connect; idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS execution_outcomes (
    id               TEXT PRIMARY KEY,
    recorded_at      TIMESTAMPTZ NOT NULL,
    opportunity_id   TEXT NOT NULL,
    pool_pair        TEXT NOT NULL,
    status           TEXT NOT NULL,
    success          BOOLEAN NOT NULL,
    reason           TEXT NOT NULL DEFAULT '',
    score            INTEGER NOT NULL,
    trade_amount     NUMERIC NOT NULL,
    predicted_profit NUMERIC NOT NULL,
    realized_profit  NUMERIC NOT NULL,
    gas_cost         NUMERIC NOT NULL,
    elapsed_ms       BIGINT NOT NULL,
    reference_id     TEXT NOT NULL DEFAULT '',
    error            TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_outcomes_recorded_at ON execution_outcomes (recorded_at);
CREATE INDEX IF NOT EXISTS idx_outcomes_pool_pair   ON execution_outcomes (pool_pair);
`

const insertOutcome = `
INSERT INTO execution_outcomes (
    id, recorded_at, opportunity_id, pool_pair, status, success, reason,
    score, trade_amount, predicted_profit, realized_profit, gas_cost,
    elapsed_ms, reference_id, error
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (id) DO NOTHING`

const selectStats = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE success),
       COALESCE(AVG(realized_profit) FILTER (WHERE success), 0)
FROM execution_outcomes
WHERE recorded_at >= $1`

// emitQueueSize bounds the async write queue. Writes beyond it are
// dropped with a warning rather than stalling the pipeline.
const emitQueueSize = 256

// PostgresStore is the durable outcome sink. Emit is asynchronous; a
// single writer goroutine drains the queue to the pool.
type PostgresStore struct {
	logger logger.LoggerInterface
	pool   *pgxpool.Pool

	queue chan domain.OutcomeRecord
	done  chan struct{}
}

// NewPostgresStore connects, applies the schema and starts the writer.
func NewPostgresStore(ctx context.Context, dsn string, log logger.LoggerInterface) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperror.New(apperror.CodeStoreWriteFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to create postgres pool"))
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, apperror.New(apperror.CodeStoreWriteFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to apply outcomes schema"))
	}

	s := &PostgresStore{
		logger: log,
		pool:   pool,
		queue:  make(chan domain.OutcomeRecord, emitQueueSize),
		done:   make(chan struct{}),
	}
	go s.writer()
	return s, nil
}

// Emit queues one record for persistence. Never blocks; a full queue
// drops the record.
func (s *PostgresStore) Emit(ctx context.Context, rec domain.OutcomeRecord) {
	select {
	case s.queue <- rec:
	default:
		s.logger.Warn(ctx, "outcome queue full, dropping record", "outcome_id", rec.ID)
	}
}

func (s *PostgresStore) writer() {
	defer close(s.done)

	for rec := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		s.write(ctx, rec)
		cancel()
	}
}

func (s *PostgresStore) write(ctx context.Context, rec domain.OutcomeRecord) {
	_, err := s.pool.Exec(ctx, insertOutcome,
		rec.ID,
		rec.Timestamp,
		rec.OpportunityID,
		rec.PoolPair,
		string(rec.Status),
		rec.Success,
		rec.Reason,
		rec.Score.Overall,
		rec.TradeAmount,
		rec.PredictedProfit,
		rec.RealizedProfit,
		rec.GasCost,
		rec.Elapsed.Milliseconds(),
		rec.ReferenceID,
		rec.Err,
	)
	if err != nil {
		s.logger.Error(ctx, "failed to persist outcome",
			"outcome_id", rec.ID, "error", err)
	}
}

// Stats aggregates persisted outcomes newer than the window.
func (s *PostgresStore) Stats(ctx context.Context, window time.Duration) (domain.HistoricalStats, error) {
	var stats domain.HistoricalStats
	var avg decimal.Decimal

	row := s.pool.QueryRow(ctx, selectStats, time.Now().Add(-window))
	if err := row.Scan(&stats.TotalCount, &stats.SuccessCount, &avg); err != nil {
		return domain.HistoricalStats{}, apperror.New(apperror.CodeStoreQueryFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to query outcome stats"))
	}
	stats.AvgProfit = avg
	return stats, nil
}

// Close drains the queue and releases the pool.
func (s *PostgresStore) Close() {
	close(s.queue)
	<-s.done
	s.pool.Close()
}

// NullSink discards records. Used when persistence is disabled.
type NullSink struct{}

// Emit drops the record.
func (NullSink) Emit(context.Context, domain.OutcomeRecord) {}
