package ravello

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultURL is the production API endpoint.
const DefaultURL = "https://cloud.ravellosystems.com/api/v1"

// APIError is a non-2xx response from the service, passed through to
// the caller unmodified.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ravello: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("ravello: %s (%s)", e.Message, http.StatusText(e.StatusCode))
}

// Client talks to the Ravello REST API. Sessions are cookie-based:
// Login must be called before any other operation.
type Client struct {
	base   string
	hc     *http.Client
	logger *zap.Logger
}

// NewClient creates a client against the given endpoint. An empty
// endpoint selects DefaultURL.
func NewClient(base string, logger *zap.Logger) *Client {
	if base == "" {
		base = DefaultURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		base:   strings.TrimRight(base, "/"),
		hc:     &http.Client{Jar: jar},
		logger: logger,
	}
}

// Login authenticates with HTTP basic auth and stores the session
// cookie for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/login", nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(username, password)
	resp, err := c.roundTrip(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Close ends the session. Logout failures are ignored; the session
// expires server-side anyway.
func (c *Client) Close(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/logout", nil)
	if err != nil {
		return
	}
	resp, err := c.roundTrip(req)
	if err != nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// GetApplication looks an application up by human name first, then by
// opaque numeric ID. Returns (nil, nil) when neither matches.
func (c *Client) GetApplication(ctx context.Context, nameOrID string) (*Application, error) {
	var summaries []Application
	if err := c.do(ctx, http.MethodGet, "/applications", nil, &summaries); err != nil {
		return nil, err
	}
	for _, s := range summaries {
		if s.Name == nameOrID {
			return c.getApplicationByID(ctx, s.ID)
		}
	}
	id, err := strconv.ParseInt(nameOrID, 10, 64)
	if err != nil {
		return nil, nil
	}
	return c.getApplicationByID(ctx, id)
}

func (c *Client) getApplicationByID(ctx context.Context, id int64) (*Application, error) {
	var app Application
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/applications/%d", id), nil, &app)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateApplication submits the full application record and returns the
// record as the service now holds it.
func (c *Client) UpdateApplication(ctx context.Context, app *Application) (*Application, error) {
	var updated Application
	path := fmt.Sprintf("/applications/%d", app.ID)
	if err := c.do(ctx, http.MethodPut, path, app, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// PublishUpdates pushes pending design changes of a published
// application out to its running deployment.
func (c *Client) PublishUpdates(ctx context.Context, appID int64) error {
	path := fmt.Sprintf("/applications/%d/publishUpdates", appID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// do performs one API round-trip: encode body, check status, decode out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.roundTrip(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.logger.Debug("api call failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return nil, fmt.Errorf("ravello: %s %s: %w", req.Method, req.URL.Path, err)
	}
	c.logger.Debug("api call",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

func errorFromResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Error != "" {
			apiErr.Message = body.Error
		} else {
			apiErr.Message = body.Message
		}
	}
	return apiErr
}
