// Package webhook implements secondary.LayoutGateway over the webhook REST
// surface. Layout bodies are forwarded as raw JSON so component types the
// bot library does not model survive untouched.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/plotsync/internal/ports/secondary"
)

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL    string
	WebhookID  string
	Token      string
	HTTPClient *http.Client
	UserAgent  string
	MaxRetries int           // retries of rate-limited requests only
	MaxDelay   time.Duration // cap on a Retry-After wait
}

// Client implements secondary.LayoutGateway.
type Client struct {
	baseURL    string
	webhookID  string
	token      string
	httpClient *http.Client
	userAgent  string
	maxRetries int
	maxDelay   time.Duration
}

var _ secondary.LayoutGateway = (*Client)(nil)

// NewClient creates a webhook client.
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://discord.com/api/v10"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = "plotsync (https://github.com/example/plotsync)"
	}
	return &Client{
		baseURL:    baseURL,
		webhookID:  opts.WebhookID,
		token:      opts.Token,
		httpClient: httpClient,
		userAgent:  userAgent,
		maxRetries: maxRetries,
		maxDelay:   maxDelay,
	}
}

type createThreadBody struct {
	ThreadName  string   `json:"thread_name"`
	AppliedTags []string `json:"applied_tags,omitempty"`
}

// CreateThread posts the layout as the first message of a new forum thread.
func (c *Client) CreateThread(ctx context.Context, req secondary.CreateThreadRequest) (*secondary.MessageRef, error) {
	body, err := mergeJSON(req.Body, createThreadBody{ThreadName: req.Name, AppliedTags: req.AppliedTags})
	if err != nil {
		return nil, fmt.Errorf("failed to build thread body: %w", err)
	}
	query := url.Values{"wait": {"true"}, "with_components": {"true"}}
	resp, err := c.do(ctx, "create thread", http.MethodPost, c.webhookPath(""), query, body, req.Files)
	if err != nil {
		return nil, err
	}
	msg, err := decodeMessage(resp)
	if err != nil {
		return nil, err
	}
	return &secondary.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

// FetchLayout returns the raw message object.
func (c *Client) FetchLayout(ctx context.Context, threadID, messageID string) ([]byte, error) {
	query := url.Values{"thread_id": {threadID}}
	resp, err := c.do(ctx, "fetch layout", http.MethodGet, c.webhookPath("/messages/"+url.PathEscape(messageID)), query, nil, nil)
	if err != nil {
		return nil, err
	}
	if _, err := decodeMessage(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// EditLayout replaces the components of a layout message.
func (c *Client) EditLayout(ctx context.Context, req secondary.EditLayoutRequest) error {
	query := url.Values{"thread_id": {req.ThreadID}, "with_components": {"true"}}
	_, err := c.do(ctx, "edit layout", http.MethodPatch, c.webhookPath("/messages/"+url.PathEscape(req.MessageID)), query, req.Body, req.Files)
	return err
}

func (c *Client) webhookPath(suffix string) string {
	return "/webhooks/" + url.PathEscape(c.webhookID) + "/" + url.PathEscape(c.token) + suffix
}

// do sends one request. Only rate-limited responses are retried here; the
// single not-found retry belongs to the caller.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body []byte, files []secondary.File) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		reqBody, contentType, err := encodeBody(body, files)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode body: %w", op, err)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("%s: failed to read response: %w", op, readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return respBody, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			if waitErr := sleepContext(ctx, c.retryDelay(resp.Header.Get("Retry-After"))); waitErr != nil {
				return nil, waitErr
			}
			continue
		}
		return nil, remoteError(op, resp.StatusCode, respBody)
	}
}

func encodeBody(body []byte, files []secondary.File) (io.Reader, string, error) {
	if body == nil && len(files) == 0 {
		return nil, "", nil
	}
	if len(files) == 0 {
		return bytes.NewReader(body), "application/json", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="payload_json"`)
	header.Set("Content-Type", "application/json")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(body); err != nil {
		return nil, "", err
	}
	for i, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[%d]"; filename="%s"`, i, quoteEscaper.Replace(f.Name)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// mergeJSON adds the fields of extra to the JSON object body.
func mergeJSON(body []byte, extra any) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, err
		}
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	var extraFields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &extraFields); err != nil {
		return nil, err
	}
	for k, v := range extraFields {
		fields[k] = v
	}
	return json.Marshal(fields)
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func remoteError(op string, status int, body []byte) error {
	rerr := &secondary.RemoteError{Op: op, StatusCode: status, Message: strings.TrimSpace(string(body))}
	var parsed apiError
	if json.Unmarshal(body, &parsed) == nil {
		rerr.Code = parsed.Code
		if strings.TrimSpace(parsed.Message) != "" {
			rerr.Message = parsed.Message
		}
	}
	return rerr
}

func (c *Client) retryDelay(retryAfterHeader string) time.Duration {
	delay := parseRetryAfter(retryAfterHeader)
	if delay <= 0 {
		delay = time.Second
	}
	if delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

// parseRetryAfter accepts whole or fractional seconds.
func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(header, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
