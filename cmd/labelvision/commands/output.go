package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ironsheep/labelvision/internal/pipeline"
)

var (
	labelColor   = color.New(color.FgCyan, color.Bold)
	missingColor = color.New(color.Faint)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
)

// writeText renders a scan result for a terminal.
func writeText(w io.Writer, res *pipeline.Result) {
	if res.FailureReason != "" {
		failColor.Fprintf(w, "✗ %s\n", res.FailureReason)
		if res.Suggestion != "" {
			fmt.Fprintf(w, "  %s\n", res.Suggestion)
		}
		return
	}

	field(w, "Product", res.ProductName)
	field(w, "Brand", res.Brand)
	field(w, "Expiry", res.ExpiryDate)
	field(w, "Manufactured", res.MfgDate)
	list(w, "Ingredients", res.Ingredients, ", ")
	list(w, "Warnings", res.Warnings, "; ")

	c := confidenceColor(res.Confidence)
	labelColor.Fprintf(w, "%-13s", "Confidence")
	c.Fprintf(w, "%.0f%%\n", res.Confidence*100)

	if v := res.Trace.Validation; v != nil && !v.IsValid {
		warnColor.Fprintf(w, "⚠ %s\n", v.Feedback)
	}
	fmt.Fprintf(w, "%-13s%s\n", "Scan ID", res.ID)
}

func field(w io.Writer, name string, v *string) {
	labelColor.Fprintf(w, "%-13s", name)
	if v == nil {
		missingColor.Fprintln(w, "-")
		return
	}
	fmt.Fprintln(w, *v)
}

func list(w io.Writer, name string, items []string, sep string) {
	labelColor.Fprintf(w, "%-13s", name)
	if len(items) == 0 {
		missingColor.Fprintln(w, "-")
		return
	}
	fmt.Fprintln(w, strings.Join(items, sep))
}

func confidenceColor(c float64) *color.Color {
	switch {
	case c >= 0.7:
		return color.New(color.FgGreen)
	case c >= 0.4:
		return warnColor
	default:
		return failColor
	}
}
