// Package server exposes the pipeline over HTTP: upload an order PDF, get
// back the analysis or a filled invoice document.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelierfact/pdf-invoice-filler/internal/config"
	"github.com/atelierfact/pdf-invoice-filler/internal/convert"
	"github.com/atelierfact/pdf-invoice-filler/internal/fields"
	"github.com/atelierfact/pdf-invoice-filler/internal/invoice"
)

const (
	orderFormField    = "order"
	templateFormField = "template"
	overridesField    = "overrides"
	formatField       = "format"

	shutdownGrace = 10 * time.Second

	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Server represents the HTTP front end
type Server struct {
	config    *config.Config
	service   *invoice.Service
	converter *convert.Converter
	engine    *gin.Engine
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, svc *invoice.Service, converter *convert.Converter) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}

	if !cfg.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:    cfg,
		service:   svc,
		converter: converter,
		engine:    gin.Default(),
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes defines all HTTP routes
func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.POST("/analyze", s.handleAnalyze)
	s.engine.POST("/generate", s.handleGenerate)
}

// Run starts the server and blocks until ctx is cancelled or the listener
// fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"name":          s.config.ServerName,
		"version":       s.config.Version,
		"pdf_converter": s.converter != nil && s.converter.Available(),
	})
}

// handleAnalyze extracts an uploaded order PDF and reports the detected
// fields and items without filling anything.
func (s *Server) handleAnalyze(c *gin.Context) {
	pdfBytes, ok := s.readUpload(c, orderFormField, true)
	if !ok {
		return
	}

	result, err := s.service.Analyze(invoice.AnalyzeRequest{PDF: pdfBytes})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	columns, rows := result.Items.Rows()
	c.JSON(http.StatusOK, gin.H{
		"fields":      result.Fields.Strings(),
		"pages":       result.Pages,
		"tables":      result.TableCount,
		"item_source": result.ItemSource,
		"items": gin.H{
			"columns": columns,
			"rows":    rows,
		},
	})
}

// handleGenerate runs the full pipeline and returns the filled document as
// an attachment. With format=pdf and a working LibreOffice the response is
// the converted PDF instead; otherwise the .docx is served.
func (s *Server) handleGenerate(c *gin.Context) {
	pdfBytes, ok := s.readUpload(c, orderFormField, true)
	if !ok {
		return
	}

	templateBytes, ok := s.readTemplate(c)
	if !ok {
		return
	}

	overrides, err := parseOverrides(c.PostForm(overridesField))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid overrides: %v", err)})
		return
	}

	result, err := s.service.Generate(invoice.GenerateRequest{
		PDF:       pdfBytes,
		Template:  templateBytes,
		Overrides: overrides,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if c.PostForm(formatField) == "pdf" && s.converter != nil {
		if rendered, convErr := s.converter.ToPDF(c.Request.Context(), result.Document); convErr == nil && rendered != nil {
			serveAttachment(c, pdfName(result.Filename), "application/pdf", rendered)
			return
		}
		log.Printf("PDF conversion unavailable, serving docx")
	}

	serveAttachment(c, result.Filename, docxContentType, result.Document)
}

// readTemplate prefers an uploaded template part and falls back to the
// configured template path.
func (s *Server) readTemplate(c *gin.Context) ([]byte, bool) {
	if data, ok := s.readUpload(c, templateFormField, false); ok && data != nil {
		return data, true
	} else if !ok {
		return nil, false
	}

	if s.config.TemplatePath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no template uploaded and no template configured"})
		return nil, false
	}
	data, err := os.ReadFile(s.config.TemplatePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("cannot read configured template: %v", err)})
		return nil, false
	}
	return data, true
}

// readUpload reads one multipart file field. A missing optional field
// returns (nil, true); every other failure writes the error response itself.
func (s *Server) readUpload(c *gin.Context, field string, required bool) ([]byte, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		if !required && errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing %q file field", field)})
		return nil, false
	}
	if fh.Size > s.config.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file exceeds maximum size of %d bytes", s.config.MaxFileSize),
		})
		return nil, false
	}

	data, err := readFileHeader(fh)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot read upload: %v", err)})
		return nil, false
	}
	return data, true
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// parseOverrides decodes the optional overrides form value, a JSON object of
// placeholder name to value.
func parseOverrides(raw string) (map[fields.Kind]string, error) {
	if raw == "" {
		return nil, nil
	}
	var plain map[string]string
	if err := json.Unmarshal([]byte(raw), &plain); err != nil {
		return nil, err
	}
	out := make(map[fields.Kind]string, len(plain))
	for k, v := range plain {
		out[fields.Kind(k)] = v
	}
	return out, nil
}

func serveAttachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// pdfName swaps the .docx extension for .pdf.
func pdfName(docxName string) string {
	const ext = ".docx"
	if len(docxName) > len(ext) && docxName[len(docxName)-len(ext):] == ext {
		return docxName[:len(docxName)-len(ext)] + ".pdf"
	}
	return docxName + ".pdf"
}
