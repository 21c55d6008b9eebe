package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var pdfMagic = []byte("%PDF")

// ProcessConverter runs a command-line engine inside a private temp directory.
type ProcessConverter struct {
	engine   string
	binary   string
	timeout  time.Duration
	tempRoot string
	args     func(dir, input, output string) []string
}

// NewSoffice converts with LibreOffice in headless mode.
func NewSoffice(binary string, timeout time.Duration, tempRoot string) *ProcessConverter {
	if binary == "" {
		binary = "soffice"
	}
	return &ProcessConverter{
		engine:   EngineSoffice,
		binary:   binary,
		timeout:  timeout,
		tempRoot: tempRoot,
		args: func(dir, input, _ string) []string {
			return []string{"--headless", "--convert-to", "pdf", "--outdir", dir, input}
		},
	}
}

// NewPandoc converts with pandoc and its default PDF engine.
func NewPandoc(binary string, timeout time.Duration, tempRoot string) *ProcessConverter {
	if binary == "" {
		binary = "pandoc"
	}
	return &ProcessConverter{
		engine:   EnginePandoc,
		binary:   binary,
		timeout:  timeout,
		tempRoot: tempRoot,
		args: func(_, input, output string) []string {
			return []string{input, "-o", output}
		},
	}
}

// Convert writes docx to a fresh temp directory, runs the engine and reads the
// PDF back. The directory is removed on every path.
func (p *ProcessConverter) Convert(ctx context.Context, docx []byte, fileName string) ([]byte, error) {
	dir, err := os.MkdirTemp(p.tempRoot, "cv-convert-")
	if err != nil {
		return nil, &Error{Engine: p.engine, Reason: "create temp dir", Err: err}
	}
	defer os.RemoveAll(dir)

	base := baseName(fileName)
	input := filepath.Join(dir, base+".docx")
	output := filepath.Join(dir, base+".pdf")
	if err := os.WriteFile(input, docx, 0o600); err != nil {
		return nil, &Error{Engine: p.engine, Reason: "write input", Err: err}
	}

	timeout := p.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.binary, p.args(dir, input, output)...)
	cmd.Dir = dir
	cmd.WaitDelay = 2 * time.Second
	// soffice needs a writable profile directory
	cmd.Env = append(os.Environ(), "HOME="+dir)

	combined, err := cmd.CombinedOutput()
	if runErr := runCtx.Err(); runErr != nil {
		if errors.Is(runErr, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &Error{Engine: p.engine, Reason: fmt.Sprintf("no result after %s", timeout), Err: ErrTimeout}
		}
		return nil, &Error{Engine: p.engine, Reason: "canceled", Err: runErr}
	}
	if err != nil {
		return nil, &Error{Engine: p.engine, Reason: "engine failed: " + tail(combined), Err: err}
	}

	pdf, err := os.ReadFile(output)
	if err != nil {
		return nil, &Error{Engine: p.engine, Reason: "no output produced", Err: err}
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		return nil, &Error{Engine: p.engine, Reason: "output is not a PDF"}
	}
	return pdf, nil
}

// tail keeps the last few hundred bytes of engine output for error messages.
func tail(out []byte) string {
	const limit = 400
	s := strings.TrimSpace(string(out))
	if len(s) > limit {
		s = "…" + s[len(s)-limit:]
	}
	if s == "" {
		return "no output"
	}
	return s
}
