// Package browser drives a headless Chrome instance to snapshot a public
// profile page when no local LinkedIn export is available.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Config holds browser configuration.
type Config struct {
	Headless   bool
	ChromePath string
}

// Controller manages a headless Chrome/Chromium instance.
type Controller struct {
	cfg         Config
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

func New(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Start launches Chrome/Chromium.
func (c *Controller) Start(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 900),
	)
	if c.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(c.cfg.ChromePath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	c.allocCtx = allocCtx
	c.allocCancel = cancel

	// Creating a tab context verifies the binary actually starts.
	tabCtx, _ := chromedp.NewContext(c.allocCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	return nil
}

// Stop shuts Chrome down.
func (c *Controller) Stop() {
	if c.allocCancel != nil {
		c.allocCancel()
	}
}

// CapturePage navigates to url and returns the visible body text, cleaned of
// blank lines.
func (c *Controller) CapturePage(url string) (string, error) {
	if c.allocCtx == nil {
		return "", fmt.Errorf("browser not started")
	}

	ctx, cancel := chromedp.NewContext(c.allocCtx)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 30*time.Second)
	defer cancelTimeout()

	var body string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Text("body", &body, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("navigate failed: %w", err)
	}
	return squeeze(body), nil
}

func squeeze(text string) string {
	lines := strings.Split(text, "\n")
	clean := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			clean = append(clean, l)
		}
	}
	return strings.Join(clean, "\n")
}
