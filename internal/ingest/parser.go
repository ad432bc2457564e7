package ingest

import (
	"fmt"
	"log/slog"
	"time"

	"canvass/internal/config"
	"canvass/internal/logging"
)

// Parser turns raw sheets into staged rows ready for staff review.
type Parser struct {
	areaCode     string
	maxRows      int
	minBirthYear int
	logger       *slog.Logger
}

// NewParser builds a Parser from campaign configuration.
func NewParser(cfg *config.Config, logger *slog.Logger) *Parser {
	return &Parser{
		areaCode:     cfg.Campaign.LocalAreaCode,
		maxRows:      cfg.Ingest.MaxRows,
		minBirthYear: cfg.Ingest.MinBirthYear,
		logger:       logging.WithComponent(logger, "ingest"),
	}
}

// ParseResult is one parsed sheet: the detected header, the column mapping,
// and every staged data row.
type ParseResult struct {
	SheetName string
	HeaderRow int
	Mapping   ColumnMapping
	Rows      []*StagingRow
}

// CommittableRows returns the staged rows staff have not skipped.
func (r *ParseResult) CommittableRows() []*StagingRow {
	rows := make([]*StagingRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		if !row.Skip {
			rows = append(rows, row)
		}
	}
	return rows
}

// Parse detects the header row and stages every data row beneath it. Blank
// rows are dropped and do not count against the row cap; per-row problems
// become issue strings, never errors. A sheet over the hard row cap fails
// outright so a runaway file cannot partially import.
func (p *Parser) Parse(sheet *Sheet) (*ParseResult, error) {
	headerRow, mapping, err := detectHeader(sheet, supporterHeaderRules)
	if err != nil {
		return nil, err
	}

	dataRows := 0
	for i := headerRow + 1; i < len(sheet.Rows); i++ {
		if !rowIsBlank(sheet.Rows[i]) {
			dataRows++
		}
	}
	if dataRows > p.maxRows {
		return nil, fmt.Errorf("%w: sheet has %d data rows, limit is %d; split the file and import the parts separately",
			ErrTooManyRows, dataRows, p.maxRows)
	}

	opts := rowOptions{
		areaCode:     p.areaCode,
		minBirthYear: p.minBirthYear,
		today:        time.Now(),
	}

	result := &ParseResult{SheetName: sheet.Name, HeaderRow: headerRow, Mapping: mapping}
	for i := headerRow + 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		if rowIsBlank(row) {
			continue
		}
		result.Rows = append(result.Rows, parseDataRow(i+1, row, mapping, opts))
	}

	p.logger.Info("parsed sheet",
		slog.String(logging.FieldFile, sheet.Name),
		slog.Int("header_row", headerRow+1),
		slog.Int("fields", len(mapping)),
		slog.Int("rows", len(result.Rows)),
	)
	return result, nil
}
