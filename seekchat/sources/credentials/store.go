// Package credentials holds the cookies and static headers that authenticate
// every request against the chat service.
package credentials

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

type Store struct {
	headers map[string]string
	cookies []Cookie
}

// Load reads both files. A missing headers file is fatal; missing cookies
// are only logged.
func Load(headersFile, cookiesFile string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	headers, err := LoadHeaders(headersFile)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded headers", zap.String("file", headersFile), zap.Int("count", len(headers)))

	cookies, err := LoadCookies(cookiesFile)
	if err != nil {
		return nil, err
	}
	if cookies == nil {
		logger.Info("No saved cookies", zap.String("file", cookiesFile))
	} else {
		logger.Info("Loaded cookies", zap.String("file", cookiesFile), zap.Int("count", len(cookies)))
	}
	return &Store{headers: headers, cookies: cookies}, nil
}

func NewStore(headers map[string]string, cookies []Cookie) *Store {
	return &Store{headers: headers, cookies: cookies}
}

// Headers returns a copy of the static headers.
func (s *Store) Headers() map[string]string {
	out := make(map[string]string, len(s.headers))
	for k, v := range s.headers {
		out[k] = v
	}
	return out
}

func (s *Store) Cookies() []Cookie {
	return append([]Cookie(nil), s.cookies...)
}

// Jar builds a cookie jar preloaded with the stored cookies for baseURL.
// Cookies carry no domain of their own in the jar: they are sent to the
// configured service host only.
func (s *Store) Jar(baseURL string) (http.CookieJar, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	hc := make([]*http.Cookie, 0, len(s.cookies))
	for _, c := range s.cookies {
		hc = append(hc, c.HTTPCookie())
	}
	jar.SetCookies(u, hc)
	return jar, nil
}
