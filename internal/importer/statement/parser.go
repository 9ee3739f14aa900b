// Package statement parses bank statement CSV exports into ledger statement
// lines. The layout is auto-detected by matching column headers against the
// dialect's known profiles.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/ledgerly/internal/encoding"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
)

type Parser struct {
	dialect Dialect
}

func NewParser(d Dialect) *Parser {
	return &Parser{dialect: d}
}

func (p *Parser) Parse(r io.Reader) ([]ledger.StatementLine, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = p.dialect.Comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := p.detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching %s format found: expected columns for %s", p.dialect.Name, p.profileNames())
	}

	return p.parseRows(profile, cols, rows[headerIdx+1:], headerIdx)
}

func (p *Parser) profileNames() string {
	names := make([]string, len(p.dialect.Profiles))
	for i, pr := range p.dialect.Profiles {
		names[i] = pr.Name
	}

	return strings.Join(names, ", ")
}

// colIndex maps lower-cased column names to their index in the row.
type colIndex map[string]int

func (c colIndex) of(name string) int {
	idx, ok := c[strings.ToLower(name)]
	if !ok {
		return -1
	}

	return idx
}

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func (p *Parser) detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range p.dialect.Profiles {
			if matchesProfile(&p.dialect.Profiles[i], cols) {
				return &p.dialect.Profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if cols.of(name) < 0 {
			return false
		}
	}

	return true
}

// parseRows extracts statement lines from data rows using the matched profile.
// headerRowNum is the 0-based index of the header in the original file (for error messages).
func (p *Parser) parseRows(pr *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]ledger.StatementLine, error) {
	dateIdx := cols.of(pr.DateCol)
	descIdx := cols.of(pr.DescCol)

	var lines []ledger.StatementLine

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		date, ok := p.parseDate(row, dateIdx)
		if !ok {
			continue
		}

		desc := cellValue(row, descIdx)
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		amount, dir, ok := p.parseRowAmount(pr, cols, row)
		if !ok {
			continue
		}

		lines = append(lines, ledger.StatementLine{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Direction:   dir,
		})
	}

	return lines, nil
}

// parseDate returns false for empty cells or unparseable values (footer rows, etc).
func (p *Parser) parseDate(row []string, idx int) (time.Time, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range p.dialect.DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func (p *Parser) parseRowAmount(pr *Profile, cols colIndex, row []string) (decimal.Decimal, ledger.Direction, bool) {
	switch pr.AmountMode {
	case amountSingle:
		return p.parseSingleAmount(row, cols.of(pr.AmountCol))
	case amountSplit:
		return p.parseSplitAmount(row, cols.of(pr.DebitCol), cols.of(pr.CreditCol))
	}

	return decimal.Zero, "", false
}

// parseSingleAmount handles a single signed amount column.
func (p *Parser) parseSingleAmount(row []string, idx int) (decimal.Decimal, ledger.Direction, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return decimal.Zero, "", false
	}

	amount, err := parseAmount(s, p.dialect.DecimalComma)
	if err != nil || amount.IsZero() {
		return decimal.Zero, "", false
	}

	if amount.IsNegative() {
		return amount.Neg(), ledger.DirectionOut, true
	}

	return amount, ledger.DirectionIn, true
}

// parseSplitAmount handles separate debit/credit columns.
func (p *Parser) parseSplitAmount(row []string, debitIdx, creditIdx int) (decimal.Decimal, ledger.Direction, bool) {
	if s := cellValue(row, debitIdx); s != "" {
		amount, err := parseAmount(s, p.dialect.DecimalComma)
		if err == nil && !amount.IsZero() {
			return amount.Abs(), ledger.DirectionOut, true
		}
	}

	if s := cellValue(row, creditIdx); s != "" {
		amount, err := parseAmount(s, p.dialect.DecimalComma)
		if err == nil && !amount.IsZero() {
			return amount.Abs(), ledger.DirectionIn, true
		}
	}

	return decimal.Zero, "", false
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
