package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/menta2k/ckd-scanner/internal/credential"
	"github.com/menta2k/ckd-scanner/pkg/analyzer"
	"github.com/menta2k/ckd-scanner/pkg/processing"
	"github.com/menta2k/ckd-scanner/pkg/report"
	"github.com/menta2k/ckd-scanner/pkg/types"
)

// Page texts
const (
	PageTitle      = "CKD 飲食掃描器 (Gemini)"
	MissingKeyText = "👈 請先輸入 Google API Key 才能開始喔！"
	NoImageText    = "請先上傳照片"
)

var (
	errNoImage = errors.New("no image uploaded")
	errBadForm = errors.New("invalid upload")
)

type pageData struct {
	Title      string
	Hint       string
	Stages     []types.Stage
	Selected   types.Stage
	NeedsKey   bool
	Warning    string
	Failure    string
	Diagnostic string
	Report     *report.Report
}

// APIResponse is returned by the JSON endpoint
type APIResponse struct {
	Stage  types.Stage           `json:"stage"`
	Result *types.AnalysisResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
	Notice string                `json:"notice,omitempty"`
}

type upload struct {
	stage  types.Stage
	apiKey string
	image  []byte
}

func (s *Server) page(selected types.Stage) pageData {
	return pageData{
		Title:    PageTitle,
		Hint:     credential.Hint,
		Stages:   types.Stages(),
		Selected: selected,
		NeedsKey: strings.TrimSpace(s.cfg.Gemini.APIKey) == "",
	}
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.page(types.DefaultStage))
}

// apiKey prefers the configured key and falls back to the form field
func (s *Server) apiKey(form *multipart.Form) string {
	if key := strings.TrimSpace(s.cfg.Gemini.APIKey); key != "" {
		return key
	}
	return strings.TrimSpace(formValue(form, "api_key"))
}

func formValue(form *multipart.Form, key string) string {
	if form == nil || len(form.Value[key]) == 0 {
		return ""
	}
	return form.Value[key][0]
}

// readUpload parses the multipart body once. A body that cannot be parsed
// (too large, not multipart) is reported as errBadForm before anything else.
func (s *Server) readUpload(c *gin.Context) (upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return upload{}, fmt.Errorf("%w: %v", errBadForm, err)
	}

	u := upload{apiKey: s.apiKey(form)}

	stage, err := types.ParseStage(formValue(form, "stage"))
	if err != nil {
		return u, err
	}
	u.stage = stage

	files := form.File["image"]
	if len(files) == 0 {
		return u, errNoImage
	}
	fh := files[0]
	if err := processing.ValidateFileExtension(fh.Filename); err != nil {
		return u, err
	}

	f, err := fh.Open()
	if err != nil {
		return u, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	u.image, err = io.ReadAll(f)
	if err != nil {
		return u, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(u.image) == 0 {
		return u, errNoImage
	}
	return u, nil
}

// run performs one analysis with a fresh client and session
func (s *Server) run(c *gin.Context, u upload) (analyzer.Outcome, error) {
	vc, err := s.newClient(u.apiKey)
	if err != nil {
		return analyzer.Outcome{}, err
	}

	a := analyzer.NewWithConfig(vc, s.analyzerConfig())
	a.SetLogger(s.logger)
	return analyzer.NewSession(a).Run(c.Request.Context(), types.AnalysisRequest{Image: u.image, Stage: u.stage}), nil
}

func (s *Server) analyzePage(c *gin.Context) {
	u, err := s.readUpload(c)
	data := s.page(u.stage)
	if u.stage == "" {
		data.Selected = types.DefaultStage
	}

	if errors.Is(err, errBadForm) {
		data.Warning = uploadMessage(err)
		c.HTML(http.StatusBadRequest, "index.html", data)
		return
	}
	if u.apiKey == "" {
		data.Warning = MissingKeyText
		c.HTML(http.StatusPreconditionFailed, "index.html", data)
		return
	}
	if err != nil {
		data.Warning = uploadMessage(err)
		c.HTML(http.StatusBadRequest, "index.html", data)
		return
	}

	out, err := s.run(c, u)
	if err != nil {
		s.logger.WithError(err).Error("failed to create model client")
		data.Warning = MissingKeyText
		c.HTML(http.StatusPreconditionFailed, "index.html", data)
		return
	}

	if out.State != analyzer.StateSuccess {
		data.Failure = analyzer.FailureNotice
		data.Diagnostic = out.UserMessage()
		c.HTML(http.StatusOK, "index.html", data)
		return
	}

	r := report.Build(out.Result)
	data.Report = &r
	c.HTML(http.StatusOK, "index.html", data)
}

func (s *Server) analyzeAPI(c *gin.Context) {
	u, err := s.readUpload(c)
	if errors.Is(err, errBadForm) {
		c.JSON(http.StatusBadRequest, APIResponse{Error: err.Error()})
		return
	}
	if u.apiKey == "" {
		c.JSON(http.StatusPreconditionFailed, APIResponse{Stage: u.stage, Error: "missing API key"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Stage: u.stage, Error: err.Error()})
		return
	}

	out, err := s.run(c, u)
	if err != nil {
		c.JSON(http.StatusPreconditionFailed, APIResponse{Stage: u.stage, Error: err.Error()})
		return
	}

	if out.State != analyzer.StateSuccess {
		c.JSON(http.StatusUnprocessableEntity, APIResponse{
			Stage:  u.stage,
			Error:  out.Err.Error(),
			Notice: analyzer.FailureNotice,
		})
		return
	}

	c.JSON(http.StatusOK, APIResponse{Stage: u.stage, Result: out.Result})
}

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, errBadForm):
		return "無法讀取上傳內容，圖片可能太大"
	case errors.Is(err, errNoImage):
		return NoImageText
	case errors.Is(err, processing.ErrUnsupportedFile):
		return "只接受 jpg、jpeg、png 圖片"
	case errors.Is(err, types.ErrUnknownStage):
		return "請選擇腎臟病分期"
	default:
		return err.Error()
	}
}
