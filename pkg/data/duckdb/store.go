// Package duckdb persists bars, experiment runs and forecasts in an
// embedded DuckDB database, one file per installation.
package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/peter-kozarec/solstice/pkg/forecast"
	"github.com/peter-kozarec/solstice/pkg/models"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

const storeComponentName = "data.duckdb.store"

var (
	ErrRunNotFound      = errors.New("run is not present in runs table")
	ErrSymbolNotPresent = errors.New("symbol is not present in symbol table")
)

// Run captures one modelling session: the experiment configuration, the
// ranked comparison and the forecast of the chosen model.
type Run struct {
	ID        uuid.UUID
	Created   time.Time
	Symbol    string
	Frequency timeseries.Frequency
	Horizon   int
	Metric    string
	BestModel string
	ModelSpec string

	Board  *forecast.Leaderboard
	Points []models.Point
}

// SymbolInfo describes an instrument known to the store.
type SymbolInfo struct {
	Symbol      string
	Description string
	Currency    string
	Digits      int
}

type Store struct {
	dataSourceName string
	db             *sql.DB
}

func NewStore(dataSourceName string) *Store {
	return &Store{
		dataSourceName: dataSourceName,
	}
}

func (s *Store) Connect() error {
	db, err := sql.Open("duckdb", s.dataSourceName)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	s.db = db
	return s.createSchema()
}

func (s *Store) Close() {
	_ = s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS symbols (
			symbol      VARCHAR PRIMARY KEY,
			description VARCHAR,
			currency    VARCHAR,
			digits      INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id     VARCHAR PRIMARY KEY,
			created    TIMESTAMP NOT NULL,
			symbol     VARCHAR NOT NULL,
			frequency  VARCHAR NOT NULL,
			horizon    INTEGER NOT NULL,
			metric     VARCHAR NOT NULL,
			best_model VARCHAR NOT NULL,
			model_spec VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS leaderboard (
			run_id VARCHAR NOT NULL,
			rank   INTEGER NOT NULL,
			model  VARCHAR NOT NULL,
			mae    DOUBLE,
			rmse   DOUBLE,
			mape   DOUBLE,
			smape  DOUBLE,
			mase   DOUBLE,
			r2     DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS forecasts (
			run_id   VARCHAR NOT NULL,
			model    VARCHAR NOT NULL,
			ts       TIMESTAMP NOT NULL,
			mean     DOUBLE NOT NULL,
			lower_80 DOUBLE,
			upper_80 DOUBLE,
			lower_95 DOUBLE,
			upper_95 DOUBLE
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}
	return nil
}

// barTable maps a symbol to its bar table. Bars live in one table per
// symbol, so the symbol must survive as an identifier.
func barTable(symbol string) (string, error) {
	clean := strings.ToLower(symbol)
	if clean == "" {
		return "", fmt.Errorf("symbol is empty")
	}
	for _, r := range clean {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return "", fmt.Errorf("symbol %q is not a valid identifier", symbol)
		}
	}
	return clean + "_bars", nil
}

func (s *Store) InsertBars(ctx context.Context, symbol string, bars []timeseries.Bar) error {
	table, err := barTable(symbol)
	if err != nil {
		return err
	}

	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts        TIMESTAMP NOT NULL,
		open_time TIMESTAMP,
		period_ns BIGINT NOT NULL,
		open      DOUBLE NOT NULL,
		high      DOUBLE NOT NULL,
		low       DOUBLE NOT NULL,
		close     DOUBLE NOT NULL,
		volume    DOUBLE
	)`, table)
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("error creating bar table: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(ts, open_time, period_ns, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, table)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, b := range bars {
		var openTime interface{}
		if !b.OpenTime.IsZero() {
			openTime = b.OpenTime
		}

		open, _ := b.Open.Float64()
		high, _ := b.High.Float64()
		low, _ := b.Low.Float64()
		closePrice, _ := b.Close.Float64()
		volume, _ := b.Volume.Float64()

		if _, err := stmt.ExecContext(ctx, b.TimeStamp, openTime, b.Period.Nanoseconds(),
			open, high, low, closePrice, volume); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("error inserting bar at %s: %w", b.TimeStamp, err)
		}
	}
	return tx.Commit()
}

// LoadBars streams the stored bars of a symbol between two instants to
// the handler in chronological order.
func (s *Store) LoadBars(ctx context.Context, symbol string, from, to time.Time, handler func(bar timeseries.Bar) error) error {
	table, err := barTable(symbol)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`SELECT ts, open_time, period_ns, open, high, low, close, volume
		FROM %s WHERE ts BETWEEN ? AND ? ORDER BY ts`, table)

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return fmt.Errorf("error preparing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			ts       time.Time
			openTime sql.NullTime
			periodNs int64
			open     float64
			high     float64
			low      float64
			closePx  float64
			volume   float64
		)
		if err := rows.Scan(&ts, &openTime, &periodNs, &open, &high, &low, &closePx, &volume); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}

		bar := timeseries.Bar{
			Source:    storeComponentName,
			Symbol:    symbol,
			TimeStamp: ts,
			Period:    time.Duration(periodNs),
			Open:      fixed.FromFloat64(open),
			High:      fixed.FromFloat64(high),
			Low:       fixed.FromFloat64(low),
			Close:     fixed.FromFloat64(closePx),
			Volume:    fixed.FromFloat64(volume),
		}
		if openTime.Valid {
			bar.OpenTime = openTime.Time
		}

		if err := handler(bar); err != nil {
			return fmt.Errorf("error processing bar: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}
	return nil
}

// LoadSeries materializes the stored closes of a symbol as a series.
func (s *Store) LoadSeries(ctx context.Context, symbol string, freq timeseries.Frequency, from, to time.Time) (*timeseries.Series, error) {
	var bars []timeseries.Bar
	err := s.LoadBars(ctx, symbol, from, to, func(bar timeseries.Bar) error {
		bars = append(bars, bar)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return timeseries.FromBars(symbol, freq, bars)
}

func (s *Store) SaveRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, created, symbol, frequency, horizon, metric, best_model, model_spec)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Created, run.Symbol, run.Frequency.String(),
		run.Horizon, run.Metric, run.BestModel, run.ModelSpec)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("error inserting run: %w", err)
	}

	if run.Board != nil {
		for i, e := range run.Board.Entries {
			_, err = tx.ExecContext(ctx, `INSERT INTO leaderboard
				(run_id, rank, model, mae, rmse, mape, smape, mase, r2)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID.String(), i+1, e.Model, e.MAE, e.RMSE, e.MAPE, e.SMAPE, e.MASE, e.R2)
			if err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("error inserting leaderboard row: %w", err)
			}
		}
	}

	for _, p := range run.Points {
		_, err = tx.ExecContext(ctx, `INSERT INTO forecasts
			(run_id, model, ts, mean, lower_80, upper_80, lower_95, upper_95)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID.String(), run.BestModel, p.Time, p.Mean,
			p.Lower80, p.Upper80, p.Lower95, p.Upper95)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("error inserting forecast point: %w", err)
		}
	}
	return tx.Commit()
}

// LatestRun returns the most recent run of a symbol, leaderboard and
// forecast included.
func (s *Store) LatestRun(ctx context.Context, symbol string) (Run, error) {
	var run Run
	var id, freq string

	row := s.db.QueryRowContext(ctx, `SELECT run_id, created, symbol, frequency, horizon, metric, best_model, model_spec
		FROM runs WHERE symbol = ? ORDER BY created DESC LIMIT 1`, symbol)

	err := row.Scan(&id, &run.Created, &run.Symbol, &freq, &run.Horizon, &run.Metric, &run.BestModel, &run.ModelSpec)
	if errors.Is(err, sql.ErrNoRows) {
		return run, fmt.Errorf("no runs for symbol %q: %w", symbol, ErrRunNotFound)
	}
	if err != nil {
		return run, fmt.Errorf("error scanning run: %w", err)
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return run, fmt.Errorf("error parsing run id: %w", err)
	}
	if run.Frequency, err = timeseries.ParseFrequency(freq); err != nil {
		return run, err
	}

	if run.Board, err = s.loadLeaderboard(ctx, run.ID, run.Metric); err != nil {
		return run, err
	}
	if run.Points, err = s.loadForecast(ctx, run.ID); err != nil {
		return run, err
	}
	return run, nil
}

func (s *Store) loadLeaderboard(ctx context.Context, runID uuid.UUID, metric string) (*forecast.Leaderboard, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT model, mae, rmse, mape, smape, mase, r2
		FROM leaderboard WHERE run_id = ? ORDER BY rank`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("error preparing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	board := &forecast.Leaderboard{Metric: metric}
	for rows.Next() {
		var e forecast.Entry
		if err := rows.Scan(&e.Model, &e.MAE, &e.RMSE, &e.MAPE, &e.SMAPE, &e.MASE, &e.R2); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		board.Entries = append(board.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}

	if len(board.Entries) == 0 {
		return nil, nil
	}
	return board, nil
}

func (s *Store) loadForecast(ctx context.Context, runID uuid.UUID) ([]models.Point, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ts, mean, lower_80, upper_80, lower_95, upper_95
		FROM forecasts WHERE run_id = ? ORDER BY ts`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("error preparing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []models.Point
	for rows.Next() {
		var p models.Point
		if err := rows.Scan(&p.Time, &p.Mean, &p.Lower80, &p.Upper80, &p.Lower95, &p.Upper95); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}
	return points, nil
}

func (s *Store) UpsertSymbol(ctx context.Context, info SymbolInfo) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO symbols
		(symbol, description, currency, digits) VALUES (?, ?, ?, ?)`,
		info.Symbol, info.Description, info.Currency, info.Digits)
	if err != nil {
		return fmt.Errorf("error upserting symbol: %w", err)
	}
	return nil
}

func (s *Store) GetSymbol(ctx context.Context, symbol string) (SymbolInfo, error) {
	var info SymbolInfo

	row := s.db.QueryRowContext(ctx, `SELECT symbol, description, currency, digits
		FROM symbols WHERE symbol = ?`, symbol)

	err := row.Scan(&info.Symbol, &info.Description, &info.Currency, &info.Digits)
	if errors.Is(err, sql.ErrNoRows) {
		return info, fmt.Errorf("unable to get symbol with name %s: %w", symbol, ErrSymbolNotPresent)
	}
	if err != nil {
		return info, fmt.Errorf("error scanning symbol: %w", err)
	}
	return info, nil
}

func (s *Store) ListSymbols(ctx context.Context) ([]SymbolInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, description, currency, digits
		FROM symbols ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("error preparing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SymbolInfo
	for rows.Next() {
		var info SymbolInfo
		if err := rows.Scan(&info.Symbol, &info.Description, &info.Currency, &info.Digits); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}
	return out, nil
}
