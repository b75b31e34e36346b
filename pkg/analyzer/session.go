package analyzer

import (
	"context"
	"errors"

	"github.com/menta2k/ckd-scanner/pkg/types"
)

// State of one user-triggered analysis
type State int

const (
	StateIdle State = iota
	StatePending
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// FailureNotice is shown to the user when an analysis fails
const FailureNotice = "分析失敗，可能是圖片模糊或 AI 無法讀取，請換一張試試看。"

// Outcome is the terminal state of a Session run
type Outcome struct {
	State  State
	Result *types.AnalysisResult
	Err    error
}

// UserMessage returns the diagnostic line for a failed outcome, including
// the underlying error text
func (o Outcome) UserMessage() string {
	if o.State != StateFailure {
		return ""
	}
	if o.Err == nil {
		return FailureNotice
	}
	return "分析發生錯誤: " + o.Err.Error()
}

// Session drives Idle -> Pending -> Success|Failure for one interaction.
// It is not safe for concurrent use; each interaction gets its own Session.
type Session struct {
	analyzer *Analyzer
	state    State
}

// NewSession creates an idle session
func NewSession(a *Analyzer) *Session {
	return &Session{analyzer: a, state: StateIdle}
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// Run restarts the flow from Idle and blocks until the analysis finishes.
// Missing input is terminal for the request and reported as a failure.
func (s *Session) Run(ctx context.Context, req types.AnalysisRequest) Outcome {
	s.state = StateIdle
	if len(req.Image) == 0 {
		s.state = StateFailure
		return Outcome{State: StateFailure, Err: &AnalysisError{Step: StepDecode, Err: errors.New("no image provided")}}
	}

	s.state = StatePending
	result, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		s.state = StateFailure
		return Outcome{State: StateFailure, Err: err}
	}

	s.state = StateSuccess
	return Outcome{State: StateSuccess, Result: result}
}
