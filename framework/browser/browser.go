// Package browser provides the primitive browser operations UI pages are
// built on, backed by playwright.
package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ErrUnsupportedEngine indicates an unknown browser engine name
var ErrUnsupportedEngine = errors.New("unsupported browser engine")

// Browser is the capability set pages and widgets use. Selectors are
// playwright selectors; a leading "//" selects by XPath.
type Browser interface {
	// SetPath loads path resolved against the base URL of the session.
	SetPath(path string) error

	// URL returns the full current location.
	URL() string

	// Path returns the path component of the current location.
	Path() string

	Click(selector string) error
	Fill(selector, value string) error
	IsVisible(selector string) bool
	Text(selector string) (string, error)
	Attribute(selector, name string) (string, error)
	WaitVisible(selector string) error
}

// Options configures a Session.
type Options struct {
	// BaseURL is prepended to every relative path, e.g. the admin portal URL.
	BaseURL string

	// Engine is one of "chromium", "firefox" or "webkit".
	Engine string

	Headless bool

	// Timeout bounds every single browser operation.
	Timeout time.Duration

	// InsecureTLS accepts self-signed certificates of test clusters.
	InsecureTLS bool

	Logger *slog.Logger
}

// Session is a playwright backed Browser with a single page.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	opts    Options
	logger  *slog.Logger
}

var _ Browser = (*Session)(nil)

// Launch starts playwright, the requested engine and one page.
func Launch(opts Options) (*Session, error) {
	if opts.Engine == "" {
		opts.Engine = "chromium"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	var engine playwright.BrowserType
	switch opts.Engine {
	case "chromium", "chrome":
		engine = pw.Chromium
	case "firefox":
		engine = pw.Firefox
	case "webkit":
		engine = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, opts.Engine)
	}

	b, err := engine.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", opts.Engine, err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(opts.InsecureTLS),
	}
	if opts.BaseURL != "" {
		ctxOpts.BaseURL = playwright.String(strings.TrimSuffix(opts.BaseURL, "/"))
	}
	bctx, err := b.NewContext(ctxOpts)
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if opts.Timeout > 0 {
		page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	}

	logger.Info("browser session started", "engine", opts.Engine, "baseURL", opts.BaseURL, "headless", opts.Headless)
	return &Session{pw: pw, browser: b, page: page, opts: opts, logger: logger}, nil
}

// Close shuts down the browser and the playwright driver.
func (s *Session) Close() error {
	var errs []error
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

// Page exposes the underlying playwright page.
func (s *Session) Page() playwright.Page {
	return s.page
}

func (s *Session) SetPath(path string) error {
	target := ResolveURL(s.opts.BaseURL, path)
	s.logger.Debug("browser goto", "url", target)
	if _, err := s.page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return fmt.Errorf("goto %s: %w", target, err)
	}
	return nil
}

func (s *Session) URL() string {
	return s.page.URL()
}

func (s *Session) Path() string {
	return PathOf(s.page.URL())
}

func (s *Session) Click(selector string) error {
	if err := s.page.Locator(selector).First().Click(); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (s *Session) Fill(selector, value string) error {
	if err := s.page.Locator(selector).First().Fill(value); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

func (s *Session) IsVisible(selector string) bool {
	visible, err := s.page.Locator(selector).First().IsVisible()
	if err != nil {
		s.logger.Debug("visibility check failed", "selector", selector, "error", err)
		return false
	}
	return visible
}

func (s *Session) Text(selector string) (string, error) {
	text, err := s.page.Locator(selector).First().InnerText()
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

func (s *Session) Attribute(selector, name string) (string, error) {
	v, err := s.page.Locator(selector).First().GetAttribute(name)
	if err != nil {
		return "", fmt.Errorf("read %s of %s: %w", name, selector, err)
	}
	return v, nil
}

func (s *Session) WaitVisible(selector string) error {
	err := s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	})
	if err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

// Screenshot writes a full page PNG to path.
func (s *Session) Screenshot(path string) error {
	if _, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return nil
}

// ResolveURL joins path onto base. Absolute URLs are returned unchanged.
func ResolveURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || base == "" {
		return path
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

// PathOf returns the path component of raw, or raw itself if it does not
// parse as a URL.
func PathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
