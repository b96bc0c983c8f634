// Package login captures session cookies from an interactive browser login.
package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seekchat/seekchat/sources/credentials"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

var ErrLoginTimeout = errors.New("timed out waiting for login")

const pollInterval = time.Second

type Options struct {
	// URL of the sign-in page opened for the user.
	URL string
	// SessionCookie is the cookie whose presence means the user is logged in.
	SessionCookie string
	Timeout       time.Duration
	Logger        *zap.Logger
}

// Browser drives a headed Chromium through Playwright.
type Browser struct {
	pw     *playwright.Playwright
	logger *zap.Logger
}

func NewBrowser(logger *zap.Logger) (*Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{pw: pw, logger: logger}, nil
}

// Close stops Playwright
func (b *Browser) Close() {
	if b.pw != nil {
		b.pw.Stop()
	}
}

// CaptureCookies opens the sign-in page, waits until the session cookie
// shows up (the user logs in by hand) and returns every cookie of the
// browser context.
func (b *Browser) CaptureCookies(ctx context.Context, opts Options) ([]credentials.Cookie, error) {
	browser, err := b.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(false)})
	if err != nil {
		return nil, err
	}
	defer browser.Close()

	bctx, err := browser.NewContext()
	if err != nil {
		return nil, err
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return nil, err
	}
	if _, err := page.Goto(opts.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, fmt.Errorf("open login page: %w", err)
	}
	b.logger.Info("Waiting for login", zap.String("url", opts.URL), zap.String("cookie", opts.SessionCookie))

	deadline := time.NewTimer(opts.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		cookies, err := bctx.Cookies()
		if err != nil {
			return nil, err
		}
		converted := fromPlaywright(cookies)
		if HasCookie(converted, opts.SessionCookie) {
			b.logger.Info("Login detected", zap.Int("cookies", len(converted)))
			return converted, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrLoginTimeout
		case <-ticker.C:
		}
	}
}

func fromPlaywright(cookies []playwright.Cookie) []credentials.Cookie {
	out := make([]credentials.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, credentials.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HttpOnly: c.HttpOnly,
			Secure:   c.Secure,
		})
	}
	return out
}

// HasCookie reports whether a non-empty cookie called name is present.
func HasCookie(cookies []credentials.Cookie, name string) bool {
	for _, c := range cookies {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}
