package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Stage is the CKD severity label selected by the user. It only changes the
// wording of the instruction sent to the model.
type Stage string

// The four selectable stages, in display order
const (
	StageEarly    Stage = "CKD 1-2 期"
	StageModerate Stage = "CKD 3-4 期 (低蛋白)"
	StageLate     Stage = "CKD 5 期"
	StageDialysis Stage = "洗腎/透析中"
)

// DefaultStage is the first listed option
const DefaultStage = StageEarly

// Stages returns the selectable stages in display order
func Stages() []Stage {
	return []Stage{StageEarly, StageModerate, StageLate, StageDialysis}
}

// ErrUnknownStage is returned by ParseStage for anything outside the four labels
var ErrUnknownStage = errors.New("unknown CKD stage")

// Valid reports whether s is one of the selectable stages
func (s Stage) Valid() bool {
	for _, st := range Stages() {
		if s == st {
			return true
		}
	}
	return false
}

// ParseStage accepts a stage label or its 1-based position in Stages().
// An empty string selects DefaultStage.
func ParseStage(v string) (Stage, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultStage, nil
	}
	if st := Stage(v); st.Valid() {
		return st, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= len(Stages()) {
		return Stages()[n-1], nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, v)
}

// Traffic-light colors returned by the model
const (
	ColorGreen  = "Green"
	ColorYellow = "Yellow"
	ColorRed    = "Red"
)

// AnalysisRequest is built fresh for every analysis and never persisted
type AnalysisRequest struct {
	Image []byte
	Stage Stage
}

// EncodedImage is the re-encoded image that is sent to the vision model
type EncodedImage struct {
	MimeType string
	Data     []byte
}

// Amount is a nutrient value. The model returns a number or null; numeric
// strings are accepted as numbers and any other string is kept as text.
type Amount struct {
	Value float64
	Text  string
	Set   bool
}

// Num returns a set numeric amount
func Num(v float64) Amount {
	return Amount{Value: v, Set: true}
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = Amount{}
			return nil
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*a = Num(v)
			return nil
		}
		*a = Amount{Text: s, Set: true}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Num(v)
	return nil
}

// MarshalJSON implements json.Marshaler
func (a Amount) MarshalJSON() ([]byte, error) {
	switch {
	case !a.Set:
		return []byte("null"), nil
	case a.Text != "":
		return json.Marshal(a.Text)
	default:
		return json.Marshal(a.Value)
	}
}

// String formats the amount without trailing zeros. Unset amounts are empty.
func (a Amount) String() string {
	if !a.Set {
		return ""
	}
	if a.Text != "" {
		return a.Text
	}
	return strconv.FormatFloat(a.Value, 'f', -1, 64)
}

// Nutrients holds per-serving values; unlabelled values stay unset
type Nutrients struct {
	Calories   Amount `json:"calories"`
	Protein    Amount `json:"protein"`
	Sodium     Amount `json:"sodium"`
	Potassium  Amount `json:"potassium"`
	Phosphorus Amount `json:"phosphorus"`
}

// Warnings lists hidden risks found on the label
type Warnings struct {
	Additives     []string `json:"additives"`
	HighSodium    bool     `json:"high_sodium"`
	HighPotassium bool     `json:"high_potassium"`
}

// Assessment is the traffic-light verdict
type Assessment struct {
	Color       string `json:"color"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}

// UnmarshalJSON accepts flags written as strings or numbers and an additive
// list written as a single string
func (w *Warnings) UnmarshalJSON(data []byte) error {
	var raw struct {
		Additives     json.RawMessage `json:"additives"`
		HighSodium    json.RawMessage `json:"high_sodium"`
		HighPotassium json.RawMessage `json:"high_potassium"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*w = Warnings{
		Additives:     looseList(raw.Additives),
		HighSodium:    looseFlag(raw.HighSodium),
		HighPotassium: looseFlag(raw.HighPotassium),
	}
	return nil
}

// UnmarshalJSON accepts numbers and booleans where text is expected
func (a *Assessment) UnmarshalJSON(data []byte) error {
	var raw struct {
		Color       json.RawMessage `json:"color"`
		Title       json.RawMessage `json:"title"`
		Explanation json.RawMessage `json:"explanation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	color, _ := looseText(raw.Color)
	title, _ := looseText(raw.Title)
	explanation, _ := looseText(raw.Explanation)
	*a = Assessment{Color: color, Title: title, Explanation: explanation}
	return nil
}

// AnalysisResult is the structured assessment parsed from one model response
type AnalysisResult struct {
	ProductName *string    `json:"product_name"`
	Nutrients   Nutrients  `json:"nutrients"`
	Warnings    Warnings   `json:"warnings"`
	Assessment  Assessment `json:"assessment"`
}

// UnmarshalJSON decodes a result, keeping a non-string product name as text
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	type plain AnalysisResult
	aux := struct {
		*plain
		ProductName json.RawMessage `json:"product_name"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.ProductName = nil
	if name, ok := looseText(aux.ProductName); ok {
		r.ProductName = &name
	}
	return nil
}

// Product returns the product name or an empty string
func (r *AnalysisResult) Product() string {
	if r == nil || r.ProductName == nil {
		return ""
	}
	return *r.ProductName
}

// looseText reads a JSON string, number or boolean as text. ok is false for
// null, absent, objects and arrays.
func looseText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	default:
		return string(raw), true
	}
}

// looseFlag reads true, "true", "yes" or a non-zero number as true
func looseFlag(raw json.RawMessage) bool {
	text, ok := looseText(raw)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true", "yes", "y", "是":
		return true
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		return v != 0
	}
	return false
}

// looseList reads an array of scalars, or a single non-blank string as a
// one-element list
func looseList(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			if text, ok := looseText(item); ok {
				list = append(list, text)
			}
		}
		return list
	}

	if text, ok := looseText(raw); ok && strings.TrimSpace(text) != "" {
		return []string{text}
	}
	return nil
}
