package convert

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	err     error
	output  []byte
	calls   int
	lastCmd string
	args    []string
}

func (s *stubRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.calls++
	s.lastCmd = name
	s.args = args
	if s.err != nil {
		return nil, []byte("conversion error"), s.err
	}
	// Mimic soffice: write <outdir>/document.pdf.
	var outdir string
	for i, a := range args {
		if a == "--outdir" && i+1 < len(args) {
			outdir = args[i+1]
		}
	}
	if outdir != "" {
		if err := os.WriteFile(filepath.Join(outdir, "document.pdf"), s.output, 0o600); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func testConverter(runner Runner, found bool) *Converter {
	c := NewConverter(time.Second, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	c.runner = runner
	c.lookup = func(name string) (string, error) {
		if found {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
	return c
}

func TestToPDF_NoBinary(t *testing.T) {
	runner := &stubRunner{}
	c := testConverter(runner, false)

	assert.False(t, c.Available())

	pdf, err := c.ToPDF(context.Background(), []byte("docx"))
	require.NoError(t, err)
	assert.Nil(t, pdf)
	assert.Zero(t, runner.calls, "must not invoke a missing binary")
}

func TestToPDF_Success(t *testing.T) {
	runner := &stubRunner{output: []byte("%PDF-1.7 fake")}
	c := testConverter(runner, true)

	assert.True(t, c.Available())

	pdf, err := c.ToPDF(context.Background(), []byte("docx"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 fake"), pdf)

	assert.Equal(t, "/usr/bin/soffice", runner.lastCmd)
	require.NotEmpty(t, runner.args)
	assert.Equal(t, "--headless", runner.args[0])
	assert.Contains(t, runner.args, "--convert-to")
}

func TestToPDF_RunFailureIsNotAnError(t *testing.T) {
	runner := &stubRunner{err: errors.New("exit status 77")}
	c := testConverter(runner, true)

	pdf, err := c.ToPDF(context.Background(), []byte("docx"))
	require.NoError(t, err)
	assert.Nil(t, pdf)
	assert.Equal(t, 1, runner.calls)
}

func TestNewConverter_Defaults(t *testing.T) {
	c := NewConverter(0, nil)
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.NotNil(t, c.logger)
}
