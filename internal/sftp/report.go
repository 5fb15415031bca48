package sftp

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ShiftReport is the parsed form of the fixed-format SFT/BR shift
// reconciliation files the point-of-sale drops after close.
type ShiftReport struct {
	Site         string          `json:"site"`
	BusinessDate time.Time       `json:"business_date"`
	ShiftNumber  int             `json:"shift_number"`
	FuelSales    decimal.Decimal `json:"fuel_sales"`
	MerchSales   decimal.Decimal `json:"merch_sales"`
	CashTotal    decimal.Decimal `json:"cash_total"`
	CardTotal    decimal.Decimal `json:"card_total"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// Labels as they appear in the report body. Amount lines are
// "LABEL<whitespace>AMOUNT"; header lines are "SITE", "DATE"
// (YYYY-MM-DD) and "SHIFT".
var amountLabels = map[string]func(*ShiftReport, decimal.Decimal){
	"FUEL SALES":  func(r *ShiftReport, d decimal.Decimal) { r.FuelSales = d },
	"MERCH SALES": func(r *ShiftReport, d decimal.Decimal) { r.MerchSales = d },
	"CASH TOTAL":  func(r *ShiftReport, d decimal.Decimal) { r.CashTotal = d },
	"CARD TOTAL":  func(r *ShiftReport, d decimal.Decimal) { r.CardTotal = d },
}

// ParseShiftReport parses a report file body. Unrecognized lines are
// collected as warnings rather than failing the whole file; the drop
// regularly contains printer noise around the figures.
func ParseShiftReport(text string) (*ShiftReport, error) {
	report := &ShiftReport{}
	dateFound := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		label, value, ok := splitLabelLine(line)
		if !ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf("skipped: %s", line))
			continue
		}

		switch label {
		case "SITE":
			report.Site = value
		case "DATE":
			d, err := time.Parse("2006-01-02", value)
			if err != nil {
				return nil, fmt.Errorf("bad DATE line %q: %w", line, err)
			}
			report.BusinessDate = d
			dateFound = true
		case "SHIFT":
			n := 0
			if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
				return nil, fmt.Errorf("bad SHIFT line %q: %w", line, err)
			}
			report.ShiftNumber = n
		default:
			assign, known := amountLabels[label]
			if !known {
				report.Warnings = append(report.Warnings, fmt.Sprintf("skipped: %s", line))
				continue
			}
			d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
			if err != nil {
				report.Warnings = append(report.Warnings, fmt.Sprintf("bad amount: %s", line))
				continue
			}
			assign(report, d)
		}
	}

	if report.Site == "" {
		return nil, fmt.Errorf("no SITE line in report")
	}
	if !dateFound {
		return nil, fmt.Errorf("no DATE line in report")
	}
	return report, nil
}

// splitLabelLine splits "CASH TOTAL   1,234.56" into label and value.
// The value is the last whitespace-separated field; everything before
// it is the label.
func splitLabelLine(line string) (label, value string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", false
	}
	value = fields[len(fields)-1]
	label = strings.ToUpper(strings.Join(fields[:len(fields)-1], " "))
	return label, value, true
}
