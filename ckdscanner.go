// Package ckdscanner checks packaged food labels against a chronic kidney
// disease (CKD) stage.
//
// A photo of the nutrition label is sent with a stage-specific instruction to
// a Gemini vision model. The reply is normalized into an AnalysisResult and
// rendered as a traffic-light report.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//		"os"
//
//		ckdscanner "github.com/menta2k/ckd-scanner"
//		"github.com/menta2k/ckd-scanner/internal/config"
//		"github.com/menta2k/ckd-scanner/pkg/report"
//		"github.com/menta2k/ckd-scanner/pkg/types"
//	)
//
//	func main() {
//		cfg := config.Default()
//		if err := cfg.ApplyEnv(); err != nil {
//			log.Fatal(err)
//		}
//
//		scanner, err := ckdscanner.New(cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result, err := scanner.AnalyzeFile(context.Background(), "label.jpg", types.StageLate)
//		if err != nil {
//			log.Fatal(err)
//		}
//		report.WriteText(os.Stdout, report.Build(result))
//	}
//
// The package consists of these components:
//
// 1. Prompt (pkg/prompt): builds the instruction for the selected stage
// 2. Gemini (pkg/gemini): one generateContent call per analysis
// 3. Normalize (pkg/normalize): strips code fences and parses the reply
// 4. Analyzer (pkg/analyzer): runs the steps above and maps every failure to ErrAnalysisFailed
// 5. Report (pkg/report): banner, additives and nutrient metrics for display
package ckdscanner

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/menta2k/ckd-scanner/internal/config"
	"github.com/menta2k/ckd-scanner/pkg/analyzer"
	"github.com/menta2k/ckd-scanner/pkg/client"
	"github.com/menta2k/ckd-scanner/pkg/gemini"
	"github.com/menta2k/ckd-scanner/pkg/processing"
	"github.com/menta2k/ckd-scanner/pkg/types"
)

// Version of the scanner
const Version = "1.0.0"

// Scanner provides a high-level interface for label analysis
type Scanner struct {
	processor *processing.Processor
	analyzer  *analyzer.Analyzer
}

// New creates a Scanner backed by Gemini. The configuration must carry an API key.
func New(cfg *config.Config) (*Scanner, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	vc, err := GeminiFactory(cfg)(cfg.Gemini.APIKey)
	if err != nil {
		return nil, err
	}
	return NewWithClient(cfg, vc), nil
}

// NewWithClient creates a Scanner around any vision client
func NewWithClient(cfg *config.Config, vc client.VisionClient) *Scanner {
	return &Scanner{
		processor: processing.NewProcessor(),
		analyzer:  analyzer.NewWithConfig(vc, AnalyzerConfig(cfg)),
	}
}

// AnalyzerConfig extracts the image settings from cfg
func AnalyzerConfig(cfg *config.Config) analyzer.Config {
	return analyzer.Config{
		SendFormat:  cfg.Image.SendFormat,
		SendSize:    cfg.Image.SendSize,
		SendQuality: cfg.Image.SendQuality,
	}
}

// GeminiFactory returns a constructor for Gemini clients that share the
// model, endpoint and timeout of cfg but take the API key per call
func GeminiFactory(cfg *config.Config) func(apiKey string) (client.VisionClient, error) {
	return func(apiKey string) (client.VisionClient, error) {
		opts := []gemini.Option{gemini.WithBaseURL(cfg.Gemini.BaseURL)}
		if cfg.Gemini.Timeout > 0 {
			opts = append(opts, gemini.WithHTTPClient(&http.Client{Timeout: cfg.Gemini.Timeout}))
		}

		c, err := gemini.NewClient(apiKey, cfg.Gemini.Model, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return c, nil
	}
}

// Analyzer exposes the underlying analyzer
func (s *Scanner) Analyzer() *analyzer.Analyzer {
	return s.analyzer
}

// Analyze runs one analysis
func (s *Scanner) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error) {
	return s.analyzer.Analyze(ctx, req)
}

// AnalyzeFile loads an image from a file path or http(s) URL and analyzes it
func (s *Scanner) AnalyzeFile(ctx context.Context, source string, stage types.Stage) (*types.AnalysisResult, error) {
	data, err := s.processor.LoadImageSmart(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return s.Analyze(ctx, types.AnalysisRequest{Image: data, Stage: stage})
}

// AnalyzeReader reads the whole image from r and analyzes it
func (s *Scanner) AnalyzeReader(ctx context.Context, r io.Reader, stage types.Stage) (*types.AnalysisResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return s.Analyze(ctx, types.AnalysisRequest{Image: data, Stage: stage})
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
