// Package web serves the single-page scanner UI and a small JSON API.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/menta2k/ckd-scanner/internal/config"
	"github.com/menta2k/ckd-scanner/internal/metrics"
	"github.com/menta2k/ckd-scanner/pkg/analyzer"
	"github.com/menta2k/ckd-scanner/pkg/client"
)

const (
	EndPointIndex   = "/"
	EndPointAnalyze = "/analyze"
	EndPointAPI     = "/api/v1/analyze"
	EndPointHealth  = "/healthz"
	EndPointMetrics = "/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

// ClientFactory builds a model client for one request's API key
type ClientFactory func(apiKey string) (client.VisionClient, error)

// Server holds everything the handlers need. Per-request state never lives here.
type Server struct {
	cfg       *config.Config
	newClient ClientFactory
	logger    log.Interface
	tmpl      *template.Template
}

// New creates a server. The factory is called once per analysis.
func New(cfg *config.Config, factory ClientFactory) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"lower": strings.ToLower,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:       cfg,
		newClient: factory,
		logger:    log.Log,
		tmpl:      tmpl,
	}, nil
}

// SetLogger replaces the request logger
func (s *Server) SetLogger(l log.Interface) {
	if l != nil {
		s.logger = l
	}
}

// Router builds the gin engine with all routes
func (s *Server) Router() *gin.Engine {
	metrics.MustRegister()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	router.SetHTMLTemplate(s.tmpl)
	if s.cfg.Server.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = s.cfg.Server.MaxUploadBytes
	}

	router.GET(EndPointHealth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "model": s.cfg.Gemini.Model})
	})
	router.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))

	router.GET(EndPointIndex, s.index)

	upload := router.Group("/")
	upload.Use(s.limitBody())
	{
		upload.POST(EndPointAnalyze, s.analyzePage)
		upload.POST(EndPointAPI, s.analyzeAPI)
	}

	return router
}

// Run starts the HTTP server on the configured address
func (s *Server) Run() error {
	s.logger.WithField("addr", s.cfg.Server.Addr).Info("web UI listening")
	return s.Router().Run(s.cfg.Server.Addr)
}

func (s *Server) analyzerConfig() analyzer.Config {
	return analyzer.Config{
		SendFormat:  s.cfg.Image.SendFormat,
		SendSize:    s.cfg.Image.SendSize,
		SendQuality: s.cfg.Image.SendQuality,
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Debug("request")
	}
}

func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if max := s.cfg.Server.MaxUploadBytes; max > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}
