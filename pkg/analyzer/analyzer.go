package analyzer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/menta2k/ckd-scanner/internal/metrics"
	"github.com/menta2k/ckd-scanner/pkg/client"
	"github.com/menta2k/ckd-scanner/pkg/normalize"
	"github.com/menta2k/ckd-scanner/pkg/processing"
	"github.com/menta2k/ckd-scanner/pkg/prompt"
	"github.com/menta2k/ckd-scanner/pkg/types"
)

// ErrAnalysisFailed is the single failure category of the analysis path.
// Every error returned by Analyze matches it with errors.Is.
var ErrAnalysisFailed = errors.New("analysis failed")

// Step names the part of the analysis that failed
type Step string

const (
	StepDecode Step = "decode"
	StepInvoke Step = "invoke"
	StepParse  Step = "parse"
)

// AnalysisError wraps any failure inside Analyze
type AnalysisError struct {
	Step Step
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrAnalysisFailed, e.Step, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Is makes every AnalysisError match ErrAnalysisFailed
func (e *AnalysisError) Is(target error) bool {
	return target == ErrAnalysisFailed
}

// Config holds image preparation settings for the analyzer
type Config struct {
	SendFormat  string
	SendSize    int
	SendQuality int
}

// DefaultConfig returns the settings used when none are given
func DefaultConfig() Config {
	return Config{
		SendFormat:  processing.FormatJPEG,
		SendSize:    1536,
		SendQuality: 85,
	}
}

// imagePreparer is the part of processing.Processor the analyzer uses
type imagePreparer interface {
	DecodeImage(data []byte) (image.Image, error)
	PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (types.EncodedImage, error)
}

// Analyzer runs one label analysis per call. It holds no per-request state.
type Analyzer struct {
	client    client.VisionClient
	processor imagePreparer
	config    Config
	logger    log.Interface
}

// New creates an analyzer with default settings
func New(c client.VisionClient) *Analyzer {
	return NewWithConfig(c, DefaultConfig())
}

// NewWithConfig creates an analyzer with custom image settings
func NewWithConfig(c client.VisionClient, cfg Config) *Analyzer {
	return &Analyzer{
		client:    c,
		processor: processing.NewProcessor(),
		config:    cfg,
		logger:    log.Log,
	}
}

// SetLogger replaces the logger (defaults to the apex/log root logger)
func (a *Analyzer) SetLogger(l log.Interface) {
	if l != nil {
		a.logger = l
	}
}

// Analyze decodes the image, sends it with the stage instruction to the
// model and parses the reply. It makes exactly one model call and returns
// either a complete result or an *AnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (result *types.AnalysisResult, err error) {
	start := time.Now()
	ctxLog := a.logger.WithFields(log.Fields{
		"request_id": uuid.NewString(),
		"stage":      string(req.Stage),
		"bytes":      len(req.Image),
	})
	ctxLog.Info("analysis started")

	defer func() {
		step := ""
		var ae *AnalysisError
		if errors.As(err, &ae) {
			step = string(ae.Step)
		}
		metrics.ObserveAnalysis(step, len(req.Image), time.Since(start))

		if err != nil {
			ctxLog.WithError(err).WithField("duration", time.Since(start)).Warn("analysis failed")
			return
		}
		ctxLog.WithFields(log.Fields{
			"duration": time.Since(start),
			"color":    result.Assessment.Color,
		}).Info("analysis finished")
	}()

	step := StepDecode
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &AnalysisError{Step: step, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	img, err := a.processor.DecodeImage(req.Image)
	if err != nil {
		return nil, &AnalysisError{Step: step, Err: err}
	}

	encoded, err := a.processor.PrepareImageForModel(img, a.config.SendFormat, a.config.SendSize, a.config.SendQuality)
	if err != nil {
		return nil, &AnalysisError{Step: step, Err: err}
	}

	step = StepInvoke
	text, err := a.client.GenerateContent(ctx, prompt.Build(req.Stage), encoded)
	if err != nil {
		return nil, &AnalysisError{Step: step, Err: err}
	}
	ctxLog.WithField("response_chars", len(text)).Debug("model responded")

	step = StepParse
	result, err = normalize.Parse(text)
	if err != nil {
		return nil, &AnalysisError{Step: step, Err: err}
	}
	return result, nil
}
