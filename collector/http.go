package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// ErrUnauthorized is returned when the backend rejects the session.
var ErrUnauthorized = errors.New("backend session unauthorized")

// maxBody caps the size of a backend response.
const maxBody = 1 << 20

// HTTPFeed polls GET {base}/sensor/latest.
type HTTPFeed struct {
	base   string
	client *http.Client
	header http.Header
}

// NewHTTPFeed creates a feed polling base with the given request timeout.
func NewHTTPFeed(base string, timeout time.Duration) *HTTPFeed {
	return &HTTPFeed{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
		header: make(http.Header),
	}
}

// SetCookie attaches a session cookie to every poll.
func (f *HTTPFeed) SetCookie(c *http.Cookie) {
	f.header.Add("Cookie", c.String())
}

func (f *HTTPFeed) Name() string { return "http" }

func (f *HTTPFeed) Collect(ctx context.Context) (*model.Reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.base+"/sensor/latest", nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range f.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll %s: %w", f.base, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("poll %s: status %d", f.base, resp.StatusCode)
	}
	return DecodeReading(body, time.Now())
}
