package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/forecast"
	"github.com/peter-kozarec/solstice/pkg/models"
	"github.com/peter-kozarec/solstice/pkg/timeseries"
)

const csvDateLayout = "2006-01-02"

// Writer persists payloads and CSV artifacts into one output directory,
// creating it on first use.
type Writer struct {
	dir    string
	logger *zap.Logger
}

func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{dir: dir, logger: logger}, nil
}

func (w *Writer) Dir() string {
	return w.dir
}

// WriteJSON marshals the payload indented and writes it under name.
func (w *Writer) WriteJSON(name string, payload any) error {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	w.logger.Info("artifact written",
		zap.String("path", path),
		zap.Int("bytes", len(raw)))
	return nil
}

// WriteSeriesCSV writes date,value rows readable back through LoadCSV.
func (w *Writer) WriteSeriesCSV(name string, s *timeseries.Series) error {
	rows := make([][]string, 0, s.Len()+1)
	rows = append(rows, []string{"date", s.Name})
	for i := range s.Values {
		rows = append(rows, []string{
			s.Times[i].Format(csvDateLayout),
			formatCell(s.Values[i]),
		})
	}
	return w.writeCSV(name, rows)
}

// WriteForecastCSV writes the point forecast with its interval bounds.
func (w *Writer) WriteForecastCSV(name string, points []models.Point) error {
	rows := make([][]string, 0, len(points)+1)
	rows = append(rows, []string{"date", "mean", "lower_80", "upper_80", "lower_95", "upper_95"})
	for _, p := range points {
		rows = append(rows, []string{
			p.Time.Format(csvDateLayout),
			formatCell(p.Mean),
			formatCell(p.Lower80),
			formatCell(p.Upper80),
			formatCell(p.Lower95),
			formatCell(p.Upper95),
		})
	}
	return w.writeCSV(name, rows)
}

// WriteLeaderboardCSV writes the ranked comparison table. Metrics that
// could not be computed become empty cells.
func (w *Writer) WriteLeaderboardCSV(name string, l *forecast.Leaderboard) error {
	rows := make([][]string, 0, len(l.Entries)+1)
	rows = append(rows, []string{"rank", "model", "mae", "rmse", "mape", "smape", "mase", "r2"})
	for i, e := range l.Entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.Model,
			formatCell(e.MAE),
			formatCell(e.RMSE),
			formatCell(e.MAPE),
			formatCell(e.SMAPE),
			formatCell(e.MASE),
			formatCell(e.R2),
		})
	}
	return w.writeCSV(name, rows)
}

func (w *Writer) writeCSV(name string, rows [][]string) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}

	w.logger.Info("artifact written",
		zap.String("path", path),
		zap.Int("rows", len(rows)-1))
	return nil
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
