package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/menta2k/ckd-scanner/pkg/normalize"
	"github.com/menta2k/ckd-scanner/pkg/types"
)

func TestBannerFor(t *testing.T) {
	tests := []struct {
		color    string
		expected Style
	}{
		{"Red", StyleError},
		{"Yellow", StyleWarning},
		{"Green", StyleSuccess},
		{"Gray", StyleNeutral},
		{"", StyleNeutral},
		{"red", StyleNeutral},
	}

	for _, test := range tests {
		style, _ := BannerFor(test.color)
		if style != test.expected {
			t.Errorf("BannerFor(%q) = %s, expected %s", test.color, style, test.expected)
		}
	}
}

func TestBuildNullPotassium(t *testing.T) {
	result, err := normalize.Parse(`{"nutrients":{"calories":100,"potassium":null},"assessment":{"color":"Green"}}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	r := Build(result)
	for _, m := range r.Metrics {
		switch m.Key {
		case "potassium", "phosphorus":
			if m.Value != PlaceholderNotListed || !m.Placeholder {
				t.Errorf("%s: expected %q, got %q", m.Key, PlaceholderNotListed, m.Value)
			}
		case "protein", "sodium":
			if m.Value != PlaceholderUnknown {
				t.Errorf("%s: expected %q, got %q", m.Key, PlaceholderUnknown, m.Value)
			}
		case "calories":
			if m.Value != "100" || m.Placeholder {
				t.Errorf("calories: expected 100, got %q", m.Value)
			}
		}
		if m.Value == "" || m.Value == "null" {
			t.Errorf("%s rendered as %q", m.Key, m.Value)
		}
	}
}

func TestBuildMetricOrder(t *testing.T) {
	r := Build(&types.AnalysisResult{})
	expected := []string{"calories", "protein", "sodium", "potassium", "phosphorus"}
	if len(r.Metrics) != len(expected) {
		t.Fatalf("Expected %d metrics, got %d", len(expected), len(r.Metrics))
	}
	for i, key := range expected {
		if r.Metrics[i].Key != key {
			t.Errorf("Metric %d: expected %s, got %s", i, key, r.Metrics[i].Key)
		}
	}
}

func TestBuildZeroIsAValue(t *testing.T) {
	r := Build(&types.AnalysisResult{Nutrients: types.Nutrients{Sodium: types.Num(0)}})
	if r.Metrics[2].Value != "0" {
		t.Errorf("Expected sodium 0, got %q", r.Metrics[2].Value)
	}
}

func TestEmptyAdditivesShowNotice(t *testing.T) {
	r := Build(&types.AnalysisResult{Warnings: types.Warnings{Additives: []string{}}})
	if r.HasAdditives() {
		t.Error("Expected no additives")
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, r); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, NoRiskNotice) {
		t.Error("Expected no-risk notice")
	}
	if strings.Contains(out, AdditivesHeading) {
		t.Error("Additive heading must not appear for an empty list")
	}
}

func TestWriteTextWithAdditives(t *testing.T) {
	name := "火腿"
	r := Build(&types.AnalysisResult{
		ProductName: &name,
		Warnings:    types.Warnings{Additives: []string{"三聚磷酸鈉", "  "}},
		Assessment:  types.Assessment{Color: "Red", Title: "不建議", Explanation: "磷含量高"},
	})

	if len(r.Additives) != 1 {
		t.Errorf("Blank additives should be dropped, got %v", r.Additives)
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, r); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"[ERROR]", "🔴 不建議", "產品: 火腿", "磷含量高", AdditivesHeading, "- 含有：三聚磷酸鈉", "鉀: 未標示 mg", "熱量: ? kcal"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, NoRiskNotice) {
		t.Error("No-risk notice must not appear when additives exist")
	}
}

func TestBuildNil(t *testing.T) {
	r := Build(nil)
	if r.Banner.Style != StyleNeutral {
		t.Errorf("Expected neutral banner, got %s", r.Banner.Style)
	}
	if len(r.Metrics) != 5 {
		t.Errorf("Expected 5 metrics, got %d", len(r.Metrics))
	}
}
