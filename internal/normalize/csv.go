package normalize

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/shopspring/decimal"
)

// CSVConfig maps bank CSV columns onto the raw-record shape. Column
// indexes are zero-based.
type CSVConfig struct {
	DateColumn        int
	AmountColumn      int
	DescriptionColumn int
	DateFormat        string
	HasHeader         bool
	Comma             rune
}

// DefaultCSVConfig matches the common "date,description,amount" export.
func DefaultCSVConfig() CSVConfig {
	return CSVConfig{
		DateColumn:        0,
		DescriptionColumn: 1,
		AmountColumn:      2,
		DateFormat:        "2006-01-02",
		HasHeader:         true,
		Comma:             ',',
	}
}

// String renders the configuration for batch audit records.
func (c CSVConfig) String() string {
	return fmt.Sprintf("csv date=%d desc=%d amount=%d format=%s header=%t",
		c.DateColumn, c.DescriptionColumn, c.AmountColumn, c.DateFormat, c.HasHeader)
}

// CSVNormalizer parses delimited bank exports into raw records.
type CSVNormalizer struct {
	config CSVConfig
}

// NewCSVNormalizer creates a CSV normalizer with the given column mapping.
func NewCSVNormalizer(config CSVConfig) *CSVNormalizer {
	if config.DateFormat == "" {
		config.DateFormat = "2006-01-02"
	}
	if config.Comma == 0 {
		config.Comma = ','
	}
	return &CSVNormalizer{config: config}
}

// Normalize reads the whole file and returns records in file order with
// hashes populated. A malformed row fails the whole parse; partial files
// should never reach the review step.
func (n *CSVNormalizer) Normalize(_ context.Context, reader io.Reader) ([]model.RawRecord, error) {
	r := csv.NewReader(reader)
	r.Comma = n.config.Comma
	r.TrimLeadingSpace = true
	// Ragged rows are reported as validation errors, not parse errors.
	r.FieldsPerRecord = -1

	minColumns := n.config.DateColumn
	for _, col := range []int{n.config.AmountColumn, n.config.DescriptionColumn} {
		if col > minColumns {
			minColumns = col
		}
	}
	minColumns++

	var records []model.RawRecord
	line := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line+1, err)
		}
		line++

		if line == 1 && n.config.HasHeader {
			continue
		}
		if len(row) < minColumns {
			return nil, fmt.Errorf("line %d: %w", line,
				common.NewValidationError("columns", fmt.Sprintf("expected at least %d, got %d", minColumns, len(row))))
		}

		date, err := time.Parse(n.config.DateFormat, strings.TrimSpace(row[n.config.DateColumn]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line,
				common.NewValidationError("date", err.Error()))
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(row[n.config.AmountColumn]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line,
				common.NewValidationError("amount", err.Error()))
		}

		rec := model.RawRecord{
			Date:        date,
			Amount:      amount.Round(2),
			Description: strings.TrimSpace(row[n.config.DescriptionColumn]),
		}
		rec.Hash = rec.GenerateHash()
		records = append(records, rec)
	}

	return records, nil
}
