package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/tradeforge/propdesk/internal/apperrors"
	"github.com/tradeforge/propdesk/internal/models"
)

const selectMarketData = `
	SELECT id, scrip, exchange, ltp, high, low, close, volume, last_updated
	FROM market_data`

// UpsertMarketData inserts or replaces the tape record for a scrip
func (db *DB) UpsertMarketData(m *models.MarketDataRecord) error {
	query := `
		INSERT INTO market_data (scrip, exchange, ltp, high, low, close, volume, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (scrip) DO UPDATE SET
			exchange = EXCLUDED.exchange,
			ltp = EXCLUDED.ltp,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			last_updated = EXCLUDED.last_updated
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query,
		m.Scrip, m.Exchange, m.Ltp, m.High, m.Low, m.Close, m.Volume, now,
	).Scan(&m.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert market data: %w", err)
	}
	m.LastUpdated = now
	return nil
}

// GetMarketData retrieves the tape record for a single scrip
func (db *DB) GetMarketData(scrip string) (*models.MarketDataRecord, error) {
	query := selectMarketData + ` WHERE scrip = $1`
	var m models.MarketDataRecord

	err := db.conn.QueryRow(query, scrip).Scan(
		&m.ID, &m.Scrip, &m.Exchange, &m.Ltp, &m.High, &m.Low, &m.Close, &m.Volume, &m.LastUpdated,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("market data", scrip)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market data: %w", err)
	}
	return &m, nil
}

// GetAllMarketData retrieves the whole tape
func (db *DB) GetAllMarketData() ([]*models.MarketDataRecord, error) {
	query := selectMarketData + ` ORDER BY scrip ASC`
	return db.scanMarketData(db.conn.Query(query))
}

// GetMarketDataByScrips retrieves tape records for the given scrips
func (db *DB) GetMarketDataByScrips(scrips []string) ([]*models.MarketDataRecord, error) {
	query := selectMarketData + ` WHERE scrip = ANY($1) ORDER BY scrip ASC`
	return db.scanMarketData(db.conn.Query(query, pq.Array(scrips)))
}

func (db *DB) scanMarketData(rows *sql.Rows, err error) ([]*models.MarketDataRecord, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query market data: %w", err)
	}
	defer rows.Close()

	var records []*models.MarketDataRecord
	for rows.Next() {
		var m models.MarketDataRecord
		err := rows.Scan(
			&m.ID, &m.Scrip, &m.Exchange, &m.Ltp, &m.High, &m.Low, &m.Close, &m.Volume, &m.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market data: %w", err)
		}
		records = append(records, &m)
	}

	return records, nil
}

// UpdateMarketDataBatch applies a simulator tick as a single
// all-or-nothing transaction: either every record in the batch is
// updated or none are.
func (db *DB) UpdateMarketDataBatch(records []*models.MarketDataRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		UPDATE market_data
		SET ltp = $2, high = $3, low = $4, close = $5, volume = $6, last_updated = $7
		WHERE scrip = $1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, m := range records {
		if _, err := stmt.Exec(m.Scrip, m.Ltp, m.High, m.Low, m.Close, m.Volume, now); err != nil {
			return fmt.Errorf("failed to update market data for %s: %w", m.Scrip, err)
		}
		m.LastUpdated = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
