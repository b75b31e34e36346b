// Package normalize turns raw model text into an AnalysisResult.
//
// The model is asked for strict JSON but frequently wraps it in a markdown
// code fence. Only the literal fence tokens are removed; anything else that
// is not JSON (prose, truncated output) fails the parse. There is no repair
// and no re-prompt.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/menta2k/ckd-scanner/pkg/types"
)

const (
	fenceOpenJSON = "```json"
	fence         = "```"
)

// ErrMalformedResponse is returned when the cleaned text is not a usable JSON object
var ErrMalformedResponse = errors.New("malformed model response")

// CleanJSONString removes code fence markers and surrounding whitespace.
// An empty input yields an empty string.
func CleanJSONString(raw string) string {
	if raw == "" {
		return ""
	}
	clean := strings.ReplaceAll(raw, fenceOpenJSON, "")
	clean = strings.ReplaceAll(clean, fence, "")
	return strings.TrimSpace(clean)
}

// Parse cleans the raw response and decodes it. Empty text, invalid JSON,
// null, non-objects and empty objects all fail with ErrMalformedResponse.
func Parse(raw string) (*types.AnalysisResult, error) {
	clean := CleanJSONString(raw)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	data := []byte(clean)

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	// null decodes into a nil map without error
	if len(top) == 0 {
		return nil, fmt.Errorf("%w: empty object", ErrMalformedResponse)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &result, nil
}

