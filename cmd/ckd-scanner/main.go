package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	jsonhandler "github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"

	ckdscanner "github.com/menta2k/ckd-scanner"
	"github.com/menta2k/ckd-scanner/internal/config"
	"github.com/menta2k/ckd-scanner/internal/credential"
	"github.com/menta2k/ckd-scanner/internal/utils"
	"github.com/menta2k/ckd-scanner/internal/web"
	"github.com/menta2k/ckd-scanner/pkg/analyzer"
	"github.com/menta2k/ckd-scanner/pkg/processing"
	"github.com/menta2k/ckd-scanner/pkg/report"
	"github.com/menta2k/ckd-scanner/pkg/types"
)

const missingKeyWarning = "⚠️ 請先設定 GOOGLE_API_KEY 或輸入 Google API Key 才能開始喔！"

func main() {
	var in, stageArg, configPath, model string
	var sendFmt string
	var sendSize, sendQ int
	var serve string
	var asJSON, listStages bool

	flag.StringVar(&in, "in", "", "label image path or URL (jpg/jpeg/png)")
	flag.StringVar(&stageArg, "stage", "", "CKD stage label or 1-4 (default: first stage)")
	flag.StringVar(&configPath, "config", "", "config file (json or yaml)")
	flag.StringVar(&model, "model", "", "Gemini model name (overrides config)")
	flag.BoolVar(&asJSON, "json", false, "print the analysis result as JSON")
	flag.StringVar(&serve, "serve", "", "start the web UI on this address (e.g. :8501)")

	flag.StringVar(&sendFmt, "sendfmt", "", "format sent to Gemini: jpg|png|webp")
	flag.IntVar(&sendSize, "sendsize", -1, "max long side sent to Gemini (px), 0=original")
	flag.IntVar(&sendQ, "sendq", 0, "JPEG/WebP quality for image sent to Gemini (1-100)")

	flag.BoolVar(&listStages, "list-stages", false, "list the selectable CKD stages and exit")

	flag.Parse()

	if listStages {
		for i, st := range types.Stages() {
			fmt.Printf("%d. %s\n", i+1, st)
		}
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if model != "" {
		cfg.Gemini.Model = model
	}
	if sendFmt != "" {
		cfg.Image.SendFormat = sendFmt
	}
	if sendSize >= 0 {
		cfg.Image.SendSize = sendSize
	}
	if sendQ != 0 {
		cfg.Image.SendQuality = sendQ
	}
	if serve != "" {
		cfg.Server.Addr = serve
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	setupLogging(cfg.Log)

	if serve != "" {
		runServer(cfg)
		return
	}

	if in == "" {
		log.Fatalf("usage: %s -in label.jpg|URL [-stage 1-4] [-json] [-config file] [-model name] | -serve :8501 | -list-stages", filepath.Base(os.Args[0]))
	}

	stage, err := types.ParseStage(stageArg)
	if err != nil {
		log.Fatalf("%v (use -list-stages)", err)
	}

	if !utils.IsURL(in) {
		if !utils.FileExists(in) {
			log.Fatalf("image not found: %s", in)
		}
		if err := processing.ValidateFileExtension(in); err != nil {
			log.WithError(err).Fatal("invalid input")
		}
		log.WithFields(log.Fields{
			"file": in,
			"size": utils.FormatFileSize(utils.FileSize(in)),
		}).Debug("loading image")
	}

	if err := resolveKey(cfg); err != nil {
		fmt.Fprintln(os.Stderr, missingKeyWarning)
		os.Exit(3)
	}

	scanner, err := ckdscanner.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create scanner: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(os.Stderr, "AI 正在仔細檢查成分...")
	result, err := scanner.AnalyzeFile(ctx, in, stage)
	if err != nil {
		if errors.Is(err, analyzer.ErrAnalysisFailed) {
			fmt.Fprintln(os.Stderr, analyzer.FailureNotice)
			fmt.Fprintln(os.Stderr, analyzer.Outcome{State: analyzer.StateFailure, Err: err}.UserMessage())
			os.Exit(1)
		}
		log.Fatalf("%v", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(result); err != nil {
			log.Fatalf("Failed to write result: %v", err)
		}
		return
	}

	if err := report.WriteText(os.Stdout, report.Build(result)); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if p := config.GetConfigPath(); utils.FileExists(p) {
		loaded, err := config.LoadFromFile(p)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(lc config.LogConfig) {
	switch lc.Format {
	case "json":
		log.SetHandler(jsonhandler.New(os.Stderr))
	case "text":
		log.SetHandler(text.New(os.Stderr))
	default:
		log.SetHandler(cli.New(os.Stderr))
	}

	level, err := log.ParseLevel(lc.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// resolveKey fills cfg.Gemini.APIKey, prompting once on the terminal when unset
func resolveKey(cfg *config.Config) error {
	if cfg.RequireAPIKey() == nil {
		return nil
	}

	fmt.Fprintln(os.Stderr, credential.Hint)
	rl, err := credential.NewTerminalReader()
	if err != nil {
		return config.ErrMissingAPIKey
	}
	defer rl.Close()

	key, err := credential.Resolve(cfg.Gemini.APIKey, rl)
	if err != nil {
		return err
	}
	cfg.Gemini.APIKey = key
	return nil
}

func runServer(cfg *config.Config) {
	srv, err := web.New(cfg, ckdscanner.GeminiFactory(cfg))
	if err != nil {
		log.Fatalf("Failed to create web server: %v", err)
	}
	if cfg.RequireAPIKey() != nil {
		log.Warn("GOOGLE_API_KEY not set; the page will ask for a key")
	}
	if err := srv.Run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
