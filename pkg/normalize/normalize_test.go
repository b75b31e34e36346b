package normalize

import (
	"errors"
	"reflect"
	"testing"
)

const body = `{
  "product_name": "高纖蘇打餅",
  "nutrients": {"calories": 120, "protein": 2.5, "sodium": 180, "potassium": null, "phosphorus": "45"},
  "warnings": {"additives": ["偏磷酸鈉"], "high_sodium": false, "high_potassium": false},
  "assessment": {"color": "Yellow", "title": "適量食用", "explanation": "含磷酸鹽添加物，建議少量"}
}`

func TestCleanJSONString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"   ", ""},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"{\"a\":1}", `{"a":1}`},
		{"  {\"a\":1}  \n", `{"a":1}`},
		{"Here you go:\n```json\n{}\n```", "Here you go:\n\n{}"},
	}

	for _, test := range tests {
		result := CleanJSONString(test.input)
		if result != test.expected {
			t.Errorf("CleanJSONString(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestParseFencedMatchesUnfenced(t *testing.T) {
	plain, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse(plain) failed: %v", err)
	}

	fenced, err := Parse("```json\n" + body + "\n```")
	if err != nil {
		t.Fatalf("Parse(fenced) failed: %v", err)
	}

	if !reflect.DeepEqual(plain, fenced) {
		t.Errorf("Fenced and plain results differ:\n%+v\n%+v", plain, fenced)
	}

	// cleaning twice changes nothing
	once := CleanJSONString("```json\n" + body + "\n```")
	if CleanJSONString(once) != once {
		t.Error("CleanJSONString is not idempotent")
	}
}

func TestParseFields(t *testing.T) {
	result, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if result.Product() != "高纖蘇打餅" {
		t.Errorf("Expected product name, got %q", result.Product())
	}
	if result.Nutrients.Calories.String() != "120" {
		t.Errorf("Expected calories 120, got %q", result.Nutrients.Calories.String())
	}
	if result.Nutrients.Potassium.Set {
		t.Error("Expected potassium to be unset")
	}
	if result.Nutrients.Phosphorus.Value != 45 {
		t.Errorf("Expected phosphorus 45, got %v", result.Nutrients.Phosphorus.Value)
	}
	if len(result.Warnings.Additives) != 1 || result.Warnings.Additives[0] != "偏磷酸鈉" {
		t.Errorf("Unexpected additives: %v", result.Warnings.Additives)
	}
	if result.Assessment.Color != "Yellow" {
		t.Errorf("Expected Yellow, got %q", result.Assessment.Color)
	}
}

func TestParseFailures(t *testing.T) {
	inputs := []string{
		"",
		"```json\n```",
		"null",
		"{}",
		"[]",
		`"text"`,
		"Sure! Here is the analysis: {\"assessment\": {}}",
		`{"assessment": {"color": "Red"`,
		`{"nutrients": []}`,
	}

	for _, input := range inputs {
		result, err := Parse(input)
		if err == nil {
			t.Errorf("Parse(%q) should fail, got %+v", input, result)
			continue
		}
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("Parse(%q) error should wrap ErrMalformedResponse: %v", input, err)
		}
	}
}

func TestParseToleratesFieldTypes(t *testing.T) {
	inputs := []string{
		`{"warnings": {"high_sodium": "false"}, "assessment": {"color": "Green"}}`,
		`{"warnings": {"additives": "無"}, "assessment": {"color": "Green"}}`,
		`{"product_name": 123, "assessment": {"color": "Green"}}`,
	}

	for _, input := range inputs {
		result, err := Parse(input)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", input, err)
			continue
		}
		if result.Assessment.Color != "Green" {
			t.Errorf("Parse(%q): expected Green, got %q", input, result.Assessment.Color)
		}
	}
}
