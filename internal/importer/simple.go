package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// SimpleParser reads a minimal "date,description,amount" CSV with ISO dates
// and signed amounts, for banks without a dedicated parser. An optional
// fourth column carries a reference that replaces the derived one.
type SimpleParser struct{}

func (p *SimpleParser) Format() string { return "simple" }

func (p *SimpleParser) Parse(r io.Reader) ([]Line, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	lines := make([]Line, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) < 3 || len(rec) > 4 {
			return nil, fmt.Errorf("row %d: want 3 or 4 fields, got %d", i+2, len(rec))
		}
		date, err := time.Parse(model.DateFormat, rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[0], err)
		}
		amount, err := decimal.NewFromString(rec[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, rec[2], err)
		}
		l := Line{Date: date, Description: strings.TrimSpace(rec[1]), Amount: amount}
		if len(rec) == 4 && rec[3] != "" {
			l.Reference = rec[3]
		} else {
			l.Reference = reference("simple", date, l.Description)
		}
		lines = append(lines, l)
	}
	return lines, nil
}
