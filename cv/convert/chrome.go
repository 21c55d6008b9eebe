package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"cv-builder/cv/render"
)

// ChromeConverter lays the DOCX out as HTML and prints it with headless Chrome.
type ChromeConverter struct {
	execPath string
	timeout  time.Duration
	tempRoot string
}

// NewChrome returns a converter that drives Chrome through chromedp. An empty
// execPath lets chromedp find the browser.
func NewChrome(execPath string, timeout time.Duration, tempRoot string) *ChromeConverter {
	return &ChromeConverter{execPath: execPath, timeout: timeout, tempRoot: tempRoot}
}

// Convert renders docx to PDF.
func (c *ChromeConverter) Convert(ctx context.Context, docx []byte, fileName string) ([]byte, error) {
	blocks, err := render.ReadBlocks(docx)
	if err != nil {
		return nil, &Error{Engine: EngineChrome, Reason: "read docx", Err: err}
	}
	html, err := render.HTML(blocks)
	if err != nil {
		return nil, &Error{Engine: EngineChrome, Reason: "build html", Err: err}
	}

	dir, err := os.MkdirTemp(c.tempRoot, "cv-convert-")
	if err != nil {
		return nil, &Error{Engine: EngineChrome, Reason: "create temp dir", Err: err}
	}
	defer os.RemoveAll(dir)

	htmlPath := filepath.Join(dir, baseName(fileName)+".html")
	if err := os.WriteFile(htmlPath, html, 0o600); err != nil {
		return nil, &Error{Engine: EngineChrome, Reason: "write html", Err: err}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserDataDir(filepath.Join(dir, "profile")),
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	timeout := c.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(runCtx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 8.27 x 11.69 in
			pdf, _, err = page.PrintToPDF().WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, &Error{Engine: EngineChrome, Reason: fmt.Sprintf("no result after %s", timeout), Err: ErrTimeout}
		}
		return nil, &Error{Engine: EngineChrome, Reason: "print to pdf", Err: err}
	}
	return pdf, nil
}
