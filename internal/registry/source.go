package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/commentera/commentera-api/internal/model"
)

// Source yields the full set of customer configurations on each load.
// Implementations return the parsed records plus the number of malformed
// rows that were skipped; a non-nil error means the source itself was
// unreadable and nothing should be applied.
type Source interface {
	Load(ctx context.Context) ([]model.CustomerConfig, int, error)
}

// CSVSource reads a flat CSV file with header customer_id,status,badge1..badgeN.
// Rows are variable-width: every non-empty cell past the first two is one
// allowed badge name.
type CSVSource struct {
	Path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

var _ Source = (*CSVSource)(nil)

func (s *CSVSource) Load(ctx context.Context) ([]model.CustomerConfig, int, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, 0, fmt.Errorf("open config source %s: %w", s.Path, err)
	}
	defer f.Close()

	return parseCustomers(ctx, f)
}

func parseCustomers(ctx context.Context, r io.Reader) ([]model.CustomerConfig, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // variable number of badge columns
	cr.TrimLeadingSpace = true

	// header
	if _, err := cr.Read(); err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	var (
		out     []model.CustomerConfig
		skipped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}

		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// unbalanced quotes and the like: skip the row, keep reading
			if _, ok := err.(*csv.ParseError); ok {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("read row: %w", err)
		}

		cfg, ok := parseRow(rec)
		if !ok {
			skipped++
			continue
		}
		out = append(out, cfg)
	}
	return out, skipped, nil
}

// parseRow maps one CSV record to a CustomerConfig. A row without both an
// alias and a status is malformed.
func parseRow(rec []string) (model.CustomerConfig, bool) {
	if len(rec) < 2 {
		return model.CustomerConfig{}, false
	}

	alias := strings.TrimSpace(rec[0])
	status := strings.TrimSpace(rec[1])
	if alias == "" || status == "" {
		return model.CustomerConfig{}, false
	}

	var badges []string
	for _, cell := range rec[2:] {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		badges = append(badges, cell)
	}

	return model.CustomerConfig{
		Alias:  alias,
		Status: status,
		Badges: badges,
	}, true
}
