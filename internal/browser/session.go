// Package browser owns the Chrome session the portal adapters drive. It is
// deliberately mechanical: element lookup, clicks, typing, dropdowns. All
// decision logic lives in internal/reconcile.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"autoedu/internal/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Selector locates one element either by CSS query or XPath. The portal's
// Angular markup is mostly reachable only by XPath.
type Selector struct {
	Query string
	XPath bool
}

// CSS builds a CSS selector.
func CSS(query string) Selector { return Selector{Query: query} }

// XPath builds an XPath selector.
func XPath(query string) Selector { return Selector{Query: query, XPath: true} }

func (s Selector) String() string { return s.Query }

// Session wraps one authenticated browser tab. The portal keeps implicit
// "current page / current student" state server-side, so a Session must
// never be shared across concurrent tasks.
type Session struct {
	cfg     config.BrowserConfig
	log     *zap.Logger
	timeout time.Duration

	browser    *rod.Browser
	page       *rod.Page
	controlURL string
	runID      string
}

// New creates an unstarted session. timeout bounds every element
// interaction; it is the adapter-owned timeout of the external contract.
func New(cfg config.BrowserConfig, timeout time.Duration, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		cfg:     cfg,
		log:     log,
		timeout: timeout,
		runID:   uuid.NewString(),
	}
}

// RunID identifies this session's run in logs and report filenames.
func (s *Session) RunID() string { return s.runID }

// Start connects to an existing Chrome or launches a new one, then opens
// the portal page.
func (s *Session) Start(ctx context.Context, url string) error {
	if s.browser != nil {
		if _, err := s.browser.Version(); err == nil {
			return nil
		}
		s.log.Warn("stale browser connection, reconnecting")
		_ = s.browser.Close()
		s.browser = nil
		s.page = nil
	}

	controlURL := s.cfg.DebuggerURL
	if controlURL == "" {
		launch := launcher.New().Headless(s.cfg.Headless)
		if s.cfg.Bin != "" {
			launch = launch.Bin(s.cfg.Bin)
		}
		for _, rawFlag := range s.cfg.Launch {
			flagStr := strings.TrimLeft(rawFlag, "-")
			name, val, hasVal := strings.Cut(flagStr, "=")
			if hasVal {
				launch = launch.Set(flags.Flag(name), val)
			} else {
				launch = launch.Set(flags.Flag(name))
			}
		}
		u, err := launch.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	s.browser = browser
	s.controlURL = controlURL

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.ViewportWidth,
		Height:            s.cfg.ViewportHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		s.log.Warn("failed to set viewport", zap.Error(err))
	}
	if err := page.Timeout(s.cfg.NavigationTimeout()).WaitLoad(); err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}
	s.page = page

	s.log.Info("browser session started",
		zap.String("run_id", s.runID), zap.String("url", url))
	return nil
}

// Shutdown closes the page and the browser.
func (s *Session) Shutdown() error {
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	return err
}

// Connected reports whether the browser is attached.
func (s *Session) Connected() bool { return s.browser != nil }

// Alive probes the devtools connection. A stale handle after a manual
// browser close still satisfies Connected, so callers that must tell a
// flaky page apart from a dead session ask this instead.
func (s *Session) Alive() bool {
	if s.browser == nil {
		return false
	}
	_, err := proto.BrowserGetVersion{}.Call(s.browser)
	return err == nil
}

// Navigate loads a URL in the session tab.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.page == nil {
		return errors.New("session not started")
	}
	return s.page.Context(ctx).Timeout(s.cfg.NavigationTimeout()).Navigate(url)
}

// Element waits for the selector and returns its element handle.
func (s *Session) Element(ctx context.Context, sel Selector) (*rod.Element, error) {
	if s.page == nil {
		return nil, errors.New("session not started")
	}
	page := s.page.Context(ctx).Timeout(s.timeout)
	var (
		el  *rod.Element
		err error
	)
	if sel.XPath {
		el, err = page.ElementX(sel.Query)
	} else {
		el, err = page.Element(sel.Query)
	}
	if err != nil {
		return nil, fmt.Errorf("element %q: %w", sel.Query, err)
	}
	return el, nil
}

// Click waits for the element, scrolls it into view and clicks it.
func (s *Session) Click(ctx context.Context, sel Selector) error {
	el, err := s.Element(ctx, sel)
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(); err != nil {
		s.log.Debug("scroll into view failed", zap.String("selector", sel.Query), zap.Error(err))
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %q: %w", sel.Query, err)
	}
	return nil
}

// ClickElement clicks an already-fetched element handle.
func (s *Session) ClickElement(el *rod.Element) error {
	_ = el.ScrollIntoView()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Input clears the field and types the text.
func (s *Session) Input(ctx context.Context, sel Selector, text string) error {
	el, err := s.Element(ctx, sel)
	if err != nil {
		return err
	}
	// Typing over a full selection replaces any prior value.
	_ = el.SelectAllText()
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input %q: %w", sel.Query, err)
	}
	return nil
}

// Text returns the element's inner text.
func (s *Session) Text(ctx context.Context, sel Selector) (string, error) {
	el, err := s.Element(ctx, sel)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("text %q: %w", sel.Query, err)
	}
	return strings.TrimSpace(text), nil
}

// InnerHTML returns the element's innerHTML, which the portal uses for its
// status dialogs.
func (s *Session) InnerHTML(ctx context.Context, sel Selector) (string, error) {
	el, err := s.Element(ctx, sel)
	if err != nil {
		return "", err
	}
	html, err := el.Property("innerHTML")
	if err != nil {
		return "", fmt.Errorf("innerHTML %q: %w", sel.Query, err)
	}
	return strings.TrimSpace(html.String()), nil
}

// Attribute returns the named attribute, "" when unset.
func (s *Session) Attribute(ctx context.Context, sel Selector, name string) (string, error) {
	el, err := s.Element(ctx, sel)
	if err != nil {
		return "", err
	}
	v, err := el.Attribute(name)
	if err != nil {
		return "", fmt.Errorf("attribute %q of %q: %w", name, sel.Query, err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

// SelectValue picks a dropdown option by its value attribute.
func (s *Session) SelectValue(ctx context.Context, sel Selector, value string) error {
	el, err := s.Element(ctx, sel)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`[value=%q]`, value)
	if err := el.Select([]string{q}, true, rod.SelectorTypeCSSSector); err != nil {
		return fmt.Errorf("select %q on %q: %w", value, sel.Query, err)
	}
	return nil
}

// SelectedValue returns the current value of a dropdown.
func (s *Session) SelectedValue(ctx context.Context, sel Selector) (string, error) {
	el, err := s.Element(ctx, sel)
	if err != nil {
		return "", err
	}
	v, err := el.Property("value")
	if err != nil {
		return "", fmt.Errorf("selected value of %q: %w", sel.Query, err)
	}
	return v.String(), nil
}

// Elements returns every element matching the selector without waiting.
func (s *Session) Elements(ctx context.Context, sel Selector) (rod.Elements, error) {
	if s.page == nil {
		return nil, errors.New("session not started")
	}
	page := s.page.Context(ctx)
	var (
		els rod.Elements
		err error
	)
	if sel.XPath {
		els, err = page.ElementsX(sel.Query)
	} else {
		els, err = page.Elements(sel.Query)
	}
	if err != nil {
		return nil, fmt.Errorf("elements %q: %w", sel.Query, err)
	}
	return els, nil
}

// Has reports whether the selector currently matches, without waiting.
func (s *Session) Has(ctx context.Context, sel Selector) (bool, error) {
	if s.page == nil {
		return false, errors.New("session not started")
	}
	page := s.page.Context(ctx)
	var (
		has bool
		err error
	)
	if sel.XPath {
		has, _, err = page.HasX(sel.Query)
	} else {
		has, _, err = page.Has(sel.Query)
	}
	if err != nil {
		return false, fmt.Errorf("has %q: %w", sel.Query, err)
	}
	return has, nil
}

// FirstMatch polls the given selectors until one appears and returns its
// label, or "" when none appears within the timeout. The portal signals
// mutually exclusive outcomes (error dialog vs. status panel) this way.
func (s *Session) FirstMatch(ctx context.Context, selectors map[string]Selector, timeout time.Duration) (string, error) {
	if s.page == nil {
		return "", errors.New("session not started")
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for label, sel := range selectors {
			has, err := s.Has(ctx, sel)
			if err != nil {
				return "", err
			}
			if has {
				return label, nil
			}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
	return "", nil
}

// Sleep pauses between UI steps, honoring context cancellation.
func (s *Session) Sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
