// Package convert renders a generated .docx to PDF through a locally
// installed LibreOffice. The conversion is best effort: a machine without
// LibreOffice, or a conversion that fails or times out, yields no PDF and no
// error.
package convert

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds a single conversion run.
const DefaultTimeout = 60 * time.Second

// candidateBinaries are probed in order; distributions name the LibreOffice
// entry point differently.
var candidateBinaries = []string{"soffice", "libreoffice"}

// Runner lets tests stub the external command.
type Runner interface {
	Run(ctx context.Context, name string, logger *slog.Logger, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		logger.Warn("exec failed",
			"cmd", name,
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
	} else {
		logger.Debug("exec ok",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// Converter drives the LibreOffice headless conversion.
type Converter struct {
	runner  Runner
	lookup  func(string) (string, error)
	timeout time.Duration
	logger  *slog.Logger
}

// NewConverter creates a converter. A zero timeout falls back to
// DefaultTimeout.
func NewConverter(timeout time.Duration, logger *slog.Logger) *Converter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		runner:  execRunner{},
		lookup:  exec.LookPath,
		timeout: timeout,
		logger:  logger,
	}
}

// Available reports whether a LibreOffice binary is on PATH.
func (c *Converter) Available() bool {
	_, ok := c.binary()
	return ok
}

func (c *Converter) binary() (string, bool) {
	for _, name := range candidateBinaries {
		if path, err := c.lookup(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// ToPDF converts docxBytes and returns the PDF, or (nil, nil) when no
// converter is installed or the run fails. Only filesystem errors around the
// scratch directory are reported as errors.
func (c *Converter) ToPDF(ctx context.Context, docxBytes []byte) ([]byte, error) {
	bin, ok := c.binary()
	if !ok {
		c.logger.Debug("no LibreOffice binary on PATH, skipping PDF conversion")
		return nil, nil
	}

	dir, err := os.MkdirTemp("", "invoice-convert-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "document.docx")
	if err := os.WriteFile(src, docxBytes, 0o600); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, _, err = c.runner.Run(runCtx, bin, c.logger,
		"--headless", "--convert-to", "pdf", "--outdir", dir, src)
	if err != nil {
		return nil, nil
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "document.pdf"))
	if err != nil {
		c.logger.Warn("converter produced no output file", "error", err)
		return nil, nil
	}
	return pdf, nil
}
