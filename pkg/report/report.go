// Package report maps an AnalysisResult to what the user sees: a colored
// banner, the advice text, flagged additives and five nutrient metrics.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/menta2k/ckd-scanner/pkg/types"
)

// Style selects the banner variant
type Style string

const (
	StyleError   Style = "error"
	StyleWarning Style = "warning"
	StyleSuccess Style = "success"
	StyleNeutral Style = "neutral"
)

// Placeholders for unlabelled nutrients
const (
	PlaceholderUnknown   = "?"
	PlaceholderNotListed = "未標示"
)

// NoRiskNotice replaces the additive list when nothing was flagged
const NoRiskNotice = "✅ 未檢測到高風險添加物"

// Section headings
const (
	AdditivesHeading = "⚠️ 發現隱形殺手"
	NutrientsHeading = "📊 營養數據 (每份)"
)

// Banner is the traffic-light header
type Banner struct {
	Style Style
	Icon  string
	Title string
}

// Text returns the icon and title as shown to the user
func (b Banner) Text() string {
	return strings.TrimSpace(b.Icon + " " + b.Title)
}

// Metric is one rendered nutrient value
type Metric struct {
	Key         string
	Label       string
	Value       string
	Unit        string
	Placeholder bool
}

// Display returns the value with its unit
func (m Metric) Display() string {
	return m.Value + " " + m.Unit
}

// Report is the display model of one analysis
type Report struct {
	ProductName   string
	Banner        Banner
	Explanation   string
	Additives     []string
	HighSodium    bool
	HighPotassium bool
	Metrics       []Metric
}

// HasAdditives reports whether any additive was flagged
func (r Report) HasAdditives() bool {
	return len(r.Additives) > 0
}

// BannerFor maps an assessment color to a banner style. Unrecognized colors
// get the neutral style.
func BannerFor(color string) (Style, string) {
	switch color {
	case types.ColorRed:
		return StyleError, "🔴"
	case types.ColorYellow:
		return StyleWarning, "🟡"
	case types.ColorGreen:
		return StyleSuccess, "🟢"
	default:
		return StyleNeutral, "⚪"
	}
}

type metricDef struct {
	key         string
	label       string
	unit        string
	placeholder string
	value       func(types.Nutrients) types.Amount
}

var metricDefs = []metricDef{
	{"calories", "熱量", "kcal", PlaceholderUnknown, func(n types.Nutrients) types.Amount { return n.Calories }},
	{"protein", "蛋白質", "g", PlaceholderUnknown, func(n types.Nutrients) types.Amount { return n.Protein }},
	{"sodium", "鈉", "mg", PlaceholderUnknown, func(n types.Nutrients) types.Amount { return n.Sodium }},
	{"potassium", "鉀", "mg", PlaceholderNotListed, func(n types.Nutrients) types.Amount { return n.Potassium }},
	{"phosphorus", "磷", "mg", PlaceholderNotListed, func(n types.Nutrients) types.Amount { return n.Phosphorus }},
}

// Build creates the display model. A nil result yields an empty neutral report.
func Build(result *types.AnalysisResult) Report {
	if result == nil {
		result = &types.AnalysisResult{}
	}

	style, icon := BannerFor(result.Assessment.Color)
	r := Report{
		ProductName:   result.Product(),
		Banner:        Banner{Style: style, Icon: icon, Title: result.Assessment.Title},
		Explanation:   result.Assessment.Explanation,
		HighSodium:    result.Warnings.HighSodium,
		HighPotassium: result.Warnings.HighPotassium,
	}

	for _, a := range result.Warnings.Additives {
		if a = strings.TrimSpace(a); a != "" {
			r.Additives = append(r.Additives, a)
		}
	}

	for _, def := range metricDefs {
		m := Metric{Key: def.key, Label: def.label, Unit: def.unit}
		amount := def.value(result.Nutrients)
		if amount.Set {
			m.Value = amount.String()
		} else {
			m.Value = def.placeholder
			m.Placeholder = true
		}
		r.Metrics = append(r.Metrics, m)
	}

	return r
}

// WriteText renders the report for a terminal
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s\n", strings.ToUpper(string(r.Banner.Style)), r.Banner.Text())
	if r.ProductName != "" {
		fmt.Fprintf(&b, "產品: %s\n", r.ProductName)
	}
	if r.Explanation != "" {
		fmt.Fprintf(&b, "%s\n", r.Explanation)
	}
	b.WriteString(strings.Repeat("-", 40) + "\n")

	if r.HasAdditives() {
		fmt.Fprintf(&b, "%s\n", AdditivesHeading)
		for _, a := range r.Additives {
			fmt.Fprintf(&b, "- 含有：%s\n", a)
		}
	} else {
		fmt.Fprintf(&b, "%s\n", NoRiskNotice)
	}

	fmt.Fprintf(&b, "\n%s\n", NutrientsHeading)
	for _, m := range r.Metrics {
		fmt.Fprintf(&b, "  %s: %s\n", m.Label, m.Display())
	}

	_, err := io.WriteString(w, b.String())
	return err
}
