package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// formatMoney renders an amount with thousands separators and no decimals.
func formatMoney(d decimal.Decimal) string {
	s := d.Round(0).String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

// printScore writes a risk score with its factors and evidence.
func printScore(w io.Writer, score *entities.RiskScore) {
	fmt.Fprintf(w, "%s  %d/100  %s\n", score.TenderID, score.Overall, score.Category)
	if len(score.Factors) == 0 {
		fmt.Fprintln(w, "  No risk factors detected")
		return
	}
	for _, f := range score.Factors {
		fmt.Fprintf(w, "  [%s +%d] %s\n", f.Type, f.Weight, f.Description)
		for _, e := range f.Evidence {
			fmt.Fprintf(w, "    - %s\n", e)
		}
	}
	fmt.Fprintf(w, "  Recommendation: %s\n", score.Recommendation)
}
