package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/portfolio-api/internal/model"
)

// Client talks to one API base URL, e.g. "http://localhost:5000/api".
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

// New builds a Client whose requests carry session's token. base may be nil.
func New(baseURL string, session *Session, base http.RoundTripper) *Client {
	if session == nil {
		session = NewSession(SessionState{})
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: &BearerTransport{Session: session, Base: base},
		},
		session: session,
	}
}

func (c *Client) Session() *Session { return c.session }

// do sends in as JSON (when non-nil) and decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, username, password string) (SessionState, error) {
	var st SessionState
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{username, password}, &st); err != nil {
		return SessionState{}, err
	}
	c.session.Set(st)
	return st, nil
}

func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/register", credentials{username, password}, nil)
}

// Logout forgets the token locally; tokens are stateless so the server is not told.
func (c *Client) Logout() { c.session.Clear() }

// Me returns the username the server sees for the current token.
func (c *Client) Me(ctx context.Context) (string, error) {
	var out struct {
		Username string `json:"username"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return "", err
	}
	return out.Username, nil
}

func (c *Client) Posts() *Resource[model.Post] { return NewResource[model.Post](c, "/posts") }

func (c *Client) Education() *Resource[model.Education] {
	return NewResource[model.Education](c, "/estudios")
}

func (c *Client) Experience() *Resource[model.Experience] {
	return NewResource[model.Experience](c, "/experiencia")
}
