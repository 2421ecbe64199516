package socket

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

// Endpoint addresses the messaging socket of one thread.
type Endpoint struct {
	// BaseURL is the ws:// or wss:// origin, e.g. wss://chat.example.com.
	BaseURL string
	Thread  domain.ThreadID
	Token   string
}

// URL renders wss://host/ws/messaging/<thread>/?token=<token>.
func (e Endpoint) URL() (string, error) {
	u, err := e.build()
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", e.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Redacted renders the URL with the token hidden. Use it in logs.
func (e Endpoint) Redacted() string {
	u, err := e.build()
	if err != nil {
		return "<invalid endpoint>"
	}
	if e.Token != "" {
		u.RawQuery = "token=REDACTED"
	}
	return u.String()
}

func (e Endpoint) build() (*url.URL, error) {
	if e.Thread == "" {
		return nil, errors.New("endpoint thread is required")
	}
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/messaging/" + url.PathEscape(e.Thread.String()) + "/"
	u.RawQuery = ""
	return u, nil
}
