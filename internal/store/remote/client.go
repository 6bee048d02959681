// Package remote is a BillStore backed by the Billed REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"billed/internal/core"
	"billed/internal/store"
)

var _ store.BillStore = (*Client)(nil)

const defaultTimeout = 10 * time.Second

type Config struct {
	BaseURL  string
	Email    string
	Password string
	Timeout  time.Duration
}

type Client struct {
	baseURL  string
	email    string
	password string
	http     *http.Client

	mu    sync.Mutex
	token string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		email:    cfg.Email,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
	}
}

// List fetches GET /bills.
func (c *Client) List(ctx context.Context) ([]core.Bill, error) {
	resp, err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/bills", nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var wire []store.WireBill
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode bills: %w", err)
	}
	bills := make([]core.Bill, 0, len(wire))
	for _, w := range wire {
		bills = append(bills, w.ToCore())
	}
	return bills, nil
}

// Create posts the bill as a multipart form: a "bill" JSON field and the
// receipt under "file".
func (c *Client) Create(ctx context.Context, nb store.NewBill) (core.Bill, error) {
	payload, err := json.Marshal(store.WireFromCore(nb.Bill))
	if err != nil {
		return core.Bill{}, fmt.Errorf("encode bill: %w", err)
	}

	resp, err := c.do(ctx, func() (*http.Request, error) {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		if err := mw.WriteField("bill", string(payload)); err != nil {
			return nil, err
		}
		if nb.Receipt != nil {
			fw, err := mw.CreateFormFile("file", nb.Receipt.Name)
			if err != nil {
				return nil, err
			}
			if _, err := fw.Write(nb.Receipt.Data); err != nil {
				return nil, err
			}
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bills", body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return core.Bill{}, err
	}
	defer resp.Body.Close()

	var w store.WireBill
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return core.Bill{}, fmt.Errorf("decode created bill: %w", err)
	}
	return w.ToCore(), nil
}

// do sends an authenticated request, logging in first when needed and once
// more if the token was rejected. Non-2xx responses become core.StoreError.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.authToken(ctx, attempt > 0)
		if err != nil {
			return nil, err
		}
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
		}
		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 && c.email != "" {
			drain(resp)
			slog.DebugContext(ctx, "Remote API token rejected, logging in again")
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			drain(resp)
			return nil, core.NewStoreError(resp.StatusCode)
		}
		return resp, nil
	}
	return nil, core.NewStoreError(http.StatusUnauthorized)
}

func (c *Client) authToken(ctx context.Context, refresh bool) (string, error) {
	if c.email == "" {
		return "", nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && !refresh {
		return c.token, nil
	}

	body, _ := json.Marshal(map[string]string{"email": c.email, "password": c.password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", core.NewStoreError(resp.StatusCode)
	}
	var out struct {
		JWT string `json:"jwt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	c.token = out.JWT
	return c.token, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
