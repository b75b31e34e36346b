package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/menta2k/ckd-scanner/pkg/types"
)

func TestSessionSuccess(t *testing.T) {
	s := NewSession(New(&fakeClient{response: greenResponse}))
	if s.State() != StateIdle {
		t.Fatalf("New session should be idle, got %s", s.State())
	}

	out := s.Run(context.Background(), types.AnalysisRequest{Image: createTestJPEG(t, 32, 32), Stage: types.StageLate})
	if out.State != StateSuccess || s.State() != StateSuccess {
		t.Fatalf("Expected success, got %s (%v)", out.State, out.Err)
	}
	if out.Result == nil {
		t.Fatal("Expected result")
	}
	if out.UserMessage() != "" {
		t.Errorf("Success should have no user message, got %q", out.UserMessage())
	}
}

func TestSessionFailure(t *testing.T) {
	s := NewSession(New(&fakeClient{err: errors.New("quota exceeded")}))

	out := s.Run(context.Background(), types.AnalysisRequest{Image: createTestJPEG(t, 32, 32)})
	if out.State != StateFailure {
		t.Fatalf("Expected failure, got %s", out.State)
	}
	if out.Result != nil {
		t.Error("Failure must not carry a partial result")
	}
	if !strings.Contains(out.UserMessage(), "quota exceeded") {
		t.Errorf("User message should include the error text, got %q", out.UserMessage())
	}
}

func TestSessionMissingImage(t *testing.T) {
	fc := &fakeClient{response: greenResponse}
	s := NewSession(New(fc))

	out := s.Run(context.Background(), types.AnalysisRequest{Stage: types.DefaultStage})
	if out.State != StateFailure {
		t.Fatalf("Expected failure, got %s", out.State)
	}
	if !errors.Is(out.Err, ErrAnalysisFailed) {
		t.Errorf("Expected ErrAnalysisFailed, got %v", out.Err)
	}
	if fc.calls != 0 {
		t.Errorf("No model call expected, got %d", fc.calls)
	}
}

func TestSessionRestartsFromIdle(t *testing.T) {
	fc := &fakeClient{err: errors.New("timeout")}
	s := NewSession(New(fc))
	img := createTestJPEG(t, 32, 32)

	if out := s.Run(context.Background(), types.AnalysisRequest{Image: img}); out.State != StateFailure {
		t.Fatalf("Expected failure, got %s", out.State)
	}

	fc.err = nil
	fc.response = greenResponse
	if out := s.Run(context.Background(), types.AnalysisRequest{Image: img}); out.State != StateSuccess {
		t.Fatalf("Expected success on retry, got %s (%v)", out.State, out.Err)
	}
	if fc.calls != 2 {
		t.Errorf("Expected one call per run, got %d", fc.calls)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateIdle:    "idle",
		StatePending: "pending",
		StateSuccess: "success",
		StateFailure: "failure",
		State(42):    "unknown",
	}
	for s, expected := range tests {
		if s.String() != expected {
			t.Errorf("State(%d).String() = %q, expected %q", s, s.String(), expected)
		}
	}
}
