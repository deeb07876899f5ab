// Package api is the HTTP client for the finance agent backend.
//
// Every endpoint maps one-to-one onto a method. Non-2xx responses are returned
// as *StatusError; transport failures and context cancellation are returned
// wrapped, so callers can tell them apart with errors.Is(err, context.Canceled).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"finagent/internal/core"
	"finagent/internal/log"
	"finagent/internal/normalize"
)

// DefaultBaseURL is where the backend listens when API_URL is not set.
const DefaultBaseURL = "http://localhost:8005"

const (
	EndpointDashboard    = "dashboard"
	EndpointTransactions = "transactions"
	EndpointCategories   = "categories"
	EndpointHistory      = "history"
	EndpointUsers        = "users"
	EndpointChat         = "chat"
	EndpointChatJSON     = "chat_json"
)

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 4 << 10

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// File is an attachment sent with a chat message.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ChatRequest is one message to the agent. A non-nil File switches the call to
// the multipart endpoint.
type ChatRequest struct {
	UserID  int
	Message string
	Mode    string
	File    *File
}

// ChatResponse carries the agent answer both raw and normalized.
type ChatResponse struct {
	Raw  json.RawMessage
	Text string
}

// Client talks to the backend API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for baseURL. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    newHTTPClientWithPooling(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.OrDiscard(c.logger).WithComponent(log.ComponentAPI)
	return c, nil
}

// BaseURL returns the backend root the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// newHTTPClientWithPooling keeps connections to the backend warm. There is no
// overall client timeout: chat round trips are bounded only by their context.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{Transport: transport}
}

// Dashboard fetches the stats, goals and recent transactions of userID.
func (c *Client) Dashboard(ctx context.Context, userID int) (core.DashboardBundle, error) {
	var out core.DashboardBundle
	err := c.getJSON(ctx, EndpointDashboard, c.endpoint("dashboard", strconv.Itoa(userID)), &out)
	return out, err
}

// Transactions fetches the full transaction history of userID.
func (c *Client) Transactions(ctx context.Context, userID int) ([]core.Transaction, error) {
	var out []core.Transaction
	err := c.getJSON(ctx, EndpointTransactions, c.endpoint("transactions", strconv.Itoa(userID)), &out)
	return out, err
}

// Categories fetches the expense totals per category for userID.
func (c *Client) Categories(ctx context.Context, userID int) ([]core.Category, error) {
	var out []core.Category
	err := c.getJSON(ctx, EndpointCategories, c.endpoint("expenses", "categories", strconv.Itoa(userID)), &out)
	return out, err
}

// Users lists the selectable profiles.
func (c *Client) Users(ctx context.Context) ([]core.User, error) {
	var out []core.User
	err := c.getJSON(ctx, EndpointUsers, c.endpoint("users"), &out)
	return out, err
}

type historyEntry struct {
	Role      string `json:"role"`
	Content   any    `json:"content"`
	Timestamp string `json:"timestamp"`
}

// History fetches the stored conversation of userID, oldest first.
func (c *Client) History(ctx context.Context, userID int) ([]core.HistoryEntry, error) {
	var wire []historyEntry
	if err := c.getJSON(ctx, EndpointHistory, c.endpoint("chat", "history", strconv.Itoa(userID)), &wire); err != nil {
		return nil, err
	}

	out := make([]core.HistoryEntry, 0, len(wire))
	for _, h := range wire {
		entry := core.HistoryEntry{Role: h.Role, Content: h.Content}
		if h.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, h.Timestamp); err == nil {
				entry.Timestamp = ts
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

type chatJSONBody struct {
	UserID  int    `json:"user_id"`
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

type chatResponseBody struct {
	Response json.RawMessage `json:"response"`
}

// Chat sends one message to the agent. With a file attached the request is a
// multipart POST /chat; otherwise a JSON POST /chat/json.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if req.Mode == "" {
		req.Mode = "assistant"
	}

	var (
		endpoint    string
		target      string
		body        io.Reader
		contentType string
	)

	if req.File != nil {
		buf, ct, err := encodeMultipart(req)
		if err != nil {
			return ChatResponse{}, fmt.Errorf("encode chat form: %w", err)
		}
		endpoint, target, body, contentType = EndpointChat, c.endpoint("chat"), buf, ct
	} else {
		data, err := json.Marshal(chatJSONBody{UserID: req.UserID, Message: req.Message, Mode: req.Mode})
		if err != nil {
			return ChatResponse{}, fmt.Errorf("encode chat body: %w", err)
		}
		endpoint, target, body, contentType = EndpointChatJSON, c.endpoint("chat", "json"), bytes.NewReader(data), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	var out chatResponseBody
	if err := c.do(httpReq, endpoint, &out); err != nil {
		return ChatResponse{}, err
	}

	return ChatResponse{Raw: out.Response, Text: normalize.Decode(out.Response)}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(req ChatRequest) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := [][2]string{
		{"user_id", strconv.Itoa(req.UserID)},
		{"message", req.Message},
		{"mode", req.Mode},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	contentType := req.File.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(req.File.Name)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.File.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func (c *Client) endpoint(parts ...string) string {
	u := *c.baseURL
	u.Path = path.Join(append([]string{"/", c.baseURL.Path}, parts...)...)
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, endpoint, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, endpoint, out)
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(req.Context(), "Backend request completed",
		log.FieldEndpoint, endpoint,
		log.FieldMethod, req.Method,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", endpoint, err)
	}
	return nil
}
