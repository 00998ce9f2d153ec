// Package report renders batch results for people (text) and tools (JSON).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/kitarb/internal/batch"
	"github.com/rewired-gh/kitarb/internal/models"
	"github.com/rewired-gh/kitarb/internal/pricing"
	"github.com/rewired-gh/kitarb/internal/ranking"
)

// Options controls what a report shows.
type Options struct {
	TopN       int
	Thresholds ranking.Thresholds
}

// FailureView is the serialized form of a batch failure.
type FailureView struct {
	Item    string         `json:"item"`
	KitType models.KitType `json:"kit_type"`
	Error   string         `json:"error"`
}

// Document is the JSON report. Records holds the full unranked set.
type Document struct {
	RunID       string                 `json:"run_id"`
	KeyPriceRef float64                `json:"key_price_ref"`
	StartedAt   time.Time              `json:"started_at"`
	FinishedAt  time.Time              `json:"finished_at"`
	Ranked      []models.UpgradeRecord `json:"ranked"`
	Highlighted []models.UpgradeRecord `json:"highlighted"`
	Records     []models.UpgradeRecord `json:"records"`
	Failures    []FailureView          `json:"failures"`
	Skipped     int                    `json:"skipped"`
}

// Build assembles the JSON document for res.
func Build(res *batch.Result, opts Options) Document {
	doc := Document{
		RunID:       res.RunID.String(),
		KeyPriceRef: res.KeyPriceRef,
		StartedAt:   res.StartedAt,
		FinishedAt:  res.FinishedAt,
		Ranked:      ranking.Rank(res.Records, models.MostProfitable),
		Highlighted: opts.Thresholds.Highlight(res.Records, opts.TopN),
		Records:     res.Records,
		Failures:    make([]FailureView, 0, len(res.Failures)),
		Skipped:     res.Skipped,
	}
	if doc.Records == nil {
		doc.Records = []models.UpgradeRecord{}
	}
	for _, f := range res.Failures {
		doc.Failures = append(doc.Failures, FailureView{Item: f.Item, KitType: f.KitType, Error: f.Err.Error()})
	}
	return doc
}

// WriteJSON writes the indented JSON document.
func WriteJSON(w io.Writer, res *batch.Result, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Build(res, opts)); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// FormatRef renders a ref amount rounded to two decimals with thousands separators.
func FormatRef(v float64) string {
	return humanize.CommafWithDigits(pricing.Round2(v), 2) + " ref"
}

// FormatPercent renders a percentage, or "n/a" when undefined.
func FormatPercent(v float64, defined bool) string {
	if !defined {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", pricing.Round2(v))
}

// WriteText writes a human-readable report.
func WriteText(w io.Writer, res *batch.Result, opts Options) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Killstreak upgrade report ===\n")
	fmt.Fprintf(&b, "Run %s | key = %s | %d records, %d failures, %d skipped\n",
		res.RunID, FormatRef(res.KeyPriceRef), len(res.Records), len(res.Failures), res.Skipped)
	fmt.Fprintf(&b, "Thresholds: profit >= %s, ROI >= %.1f%%\n\n",
		FormatRef(opts.Thresholds.MinProfitRef), opts.Thresholds.MinROI*100)

	b.WriteString("--- MOST PROFITABLE ---\n")
	writeTable(&b, ranking.TopProfitable(res.Records, opts.TopN), opts.Thresholds)

	b.WriteString("\n--- LEAST PROFITABLE ---\n")
	writeTable(&b, ranking.TopUnprofitable(res.Records, opts.TopN), opts.Thresholds)

	if len(res.Failures) > 0 {
		b.WriteString("\n--- FAILED ---\n")
		for _, f := range res.Failures {
			fmt.Fprintf(&b, "%s (%s): %v\n", f.Item, f.KitType, f.Err)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTable(w io.Writer, records []models.UpgradeRecord, th ranking.Thresholds) {
	if len(records) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tUPGRADED ITEM\tBASE\tKIT\tSELLS FOR\tPROFIT\tROI\tBREAK-EVEN\t")
	for i, r := range records {
		mark := ""
		if th.Passes(r) {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			i+1, mark, r.BaseItemRef,
			FormatRef(r.BasePrice.RefValue), FormatRef(r.KitCost), FormatRef(r.UpgradedPrice.RefValue),
			FormatRef(r.ProfitRef),
			FormatPercent(r.ProfitPercent, r.ProfitPercentDefined()),
			FormatPercent(r.BreakEvenPercent, r.BreakEvenDefined()),
		)
	}
	_ = tw.Flush()
}
