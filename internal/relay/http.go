package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

// ErrNotFound is returned for a 404 from the directory.
var ErrNotFound = errors.New("not found")

// PublicKeyRecord is the wire form of a directory key entry.
type PublicKeyRecord struct {
	UserID    domain.UserID    `json:"user_id"`
	PublicKey domain.PublicKey `json:"public_key"`
}

type HTTP struct {
	Base  string
	Token string
	HTTP  *http.Client
}

func NewHTTP(base, token string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{Base: strings.TrimSuffix(base, "/"), Token: token, HTTP: client}
}

func (c *HTTP) FetchUser(ctx context.Context, id domain.UserID) (domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id.String()), nil, &out); err != nil {
		return domain.User{}, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return out, nil
}

func (c *HTTP) FetchPublicKey(ctx context.Context, id domain.UserID) (domain.PublicKey, error) {
	var rec PublicKeyRecord
	if err := c.do(ctx, http.MethodGet, "/api/keys/"+url.PathEscape(id.String()), nil, &rec); err != nil {
		return nil, err
	}
	if len(rec.PublicKey) == 0 {
		return nil, fmt.Errorf("key directory returned an empty key for %s", id)
	}
	return rec.PublicKey, nil
}

func (c *HTTP) PublishPublicKey(ctx context.Context, id domain.UserID, key domain.PublicKey) error {
	rec := PublicKeyRecord{UserID: id, PublicKey: key}
	return c.do(ctx, http.MethodPut, "/api/keys/"+url.PathEscape(id.String()), rec, nil)
}

func (c *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("relay %s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay %s %s: %s", method, path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var (
	_ domain.KeyDirectory  = (*HTTP)(nil)
	_ domain.UserDirectory = (*HTTP)(nil)
)
