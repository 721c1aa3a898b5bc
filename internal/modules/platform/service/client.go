package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"challenge_desk/internal/modules/config"
	"challenge_desk/pkg/tracing"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Client consumes the challenge platform's REST API. It holds no credential;
// every authenticated call takes the token explicitly.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return NewClientWith(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.Timeout})
}

func NewClientWith(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

type errorBody struct {
	Error string `json:"error"`
	Msg   string `json:"msg"` // flask-jwt
}

func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any) (err error) {
	url := c.baseURL + path

	span, ctx := tracing.StartClientSpan(ctx, "platform."+op, method, url)
	status := 0
	defer func() { tracing.FinishClientSpan(span, status, err) }()

	var rd io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "%s marshal", op)
		}
		rd = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return errors.Wrapf(err, "%s new request", op)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: errors.Wrap(err, "do")}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: errors.Wrap(err, "read body")}
	}

	if resp.StatusCode/100 != 2 {
		var eb errorBody
		_ = sonic.Unmarshal(data, &eb)
		msg := eb.Error
		if msg == "" {
			msg = eb.Msg
		}
		return newAPIError(op, resp.StatusCode, msg, token != "")
	}

	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return &TransportError{Op: op, Err: errors.Wrapf(err, "decode %q", truncate(data, 256))}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
