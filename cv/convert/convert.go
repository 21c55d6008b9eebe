package convert

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Engine names accepted by New.
const (
	EngineSoffice = "soffice"
	EnginePandoc  = "pandoc"
	EngineChrome  = "chrome"
)

// DefaultTimeout bounds a single conversion when none is configured.
const DefaultTimeout = 60 * time.Second

// ErrTimeout is wrapped by every conversion that ran out of time.
var ErrTimeout = errors.New("conversion timed out")

// Converter turns DOCX bytes into PDF bytes.
type Converter interface {
	Convert(ctx context.Context, docx []byte, fileName string) ([]byte, error)
}

// Error describes a failed conversion.
type Error struct {
	Engine string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s conversion failed: %s", e.Engine, e.Reason)
	}
	return fmt.Sprintf("%s conversion failed: %s: %v", e.Engine, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options configures New.
type Options struct {
	Engine     string
	Binary     string
	Timeout    time.Duration
	TempRoot   string
	ChromePath string
}

// New returns the converter for the configured engine.
func New(opts Options) (Converter, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	switch strings.ToLower(strings.TrimSpace(opts.Engine)) {
	case "", EngineSoffice:
		return NewSoffice(opts.Binary, opts.Timeout, opts.TempRoot), nil
	case EnginePandoc:
		return NewPandoc(opts.Binary, opts.Timeout, opts.TempRoot), nil
	case EngineChrome:
		return NewChrome(opts.ChromePath, opts.Timeout, opts.TempRoot), nil
	default:
		return nil, fmt.Errorf("unknown converter engine %q", opts.Engine)
	}
}

// baseName returns the file name without directory or extension.
func baseName(fileName string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "document"
	}
	return base
}
