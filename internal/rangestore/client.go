package rangestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/iqamah"
)

const (
	monthPath = "/iqamaah-times/month"
	rangePath = "/iqamaah-times/range"
)

// Client talks to the backend that owns iqamaah ranges.
type Client struct {
	baseURL string
	http    *http.Client
}

// compile-time check that Client satisfies the engine's store
var _ iqamah.RangeStore = (*Client)(nil)

// New returns a client for baseURL (e.g. http://host:5000/api).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchMonth returns the unwrapped month payload. A 404 or a null body
// means the backend holds no data for the month.
func (c *Client) FetchMonth(ctx context.Context, year, month int) (any, bool, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))

	payload, err := c.do(ctx, http.MethodGet, monthPath+"?"+q.Encode(), nil)
	if err != nil {
		if IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, payload != nil, nil
}

func (c *Client) CreateRange(ctx context.Context, req iqamah.CreateRequest) (any, error) {
	return c.do(ctx, http.MethodPost, rangePath, req)
}

func (c *Client) UpdateRange(ctx context.Context, req iqamah.UpdateRequest) (any, error) {
	return c.do(ctx, http.MethodPatch, rangePath, req)
}

func (c *Client) DeleteRange(ctx context.Context, req iqamah.DeleteRequest) (any, error) {
	return c.do(ctx, http.MethodDelete, rangePath, req)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (any, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, requestError(err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, requestError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := responseError(resp.StatusCode, raw)
		if resp.StatusCode != http.StatusNotFound {
			log.Error().Int("status", resp.StatusCode).Str("method", method).Str("path", path).Msg(rerr.Message)
		}
		return nil, rerr
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// not JSON; hand back the text as-is
		return string(raw), nil
	}
	return Unwrap(decoded), nil
}

// Unwrap strips a {data: X} or {result: X} envelope when X is an object or
// a list.
func Unwrap(payload any) any {
	obj, ok := payload.(map[string]any)
	if !ok {
		return payload
	}
	for _, k := range []string{"data", "result"} {
		switch inner := obj[k].(type) {
		case map[string]any, []any:
			return inner
		}
	}
	return payload
}
