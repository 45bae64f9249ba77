// Package fetch implements the Page Fetcher (spec §4.5): one GET per URL,
// translating transport failures into the synthetic status codes the rest
// of the crawler treats uniformly.
package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aybabtme/iocontrol"

	"github.com/mwalden/sitecrawl/internal/transport"
)

// Outcome is the raw result of fetching one URL, before it is folded into a
// crawler.CrawlResult.
type Outcome struct {
	StatusCode     int
	Body           string
	ContentType    string
	BytesPerSecond int64
	Errors         []string
	StartTime      time.Time
	CompletionTime time.Time
}

// ElapsedMs returns the wall-clock duration of the fetch in milliseconds.
func (o Outcome) ElapsedMs() int64 {
	return o.CompletionTime.Sub(o.StartTime).Milliseconds()
}

// Fetch performs a single GET against rawURL using fetchFn (the outermost
// transport.Fetch, possibly decorated with retry/telemetry middleware by
// the caller) and userAgent, bounded by timeout. It never returns an error:
// transport failures are folded into Outcome per spec §3/§7.
func Fetch(ctx context.Context, fetchFn transport.Fetch, rawURL, userAgent string, timeout time.Duration) (out Outcome) {
	out = Outcome{StartTime: time.Now()}
	defer func() { out.CompletionTime = time.Now() }()

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		out.StatusCode = 500
		out.Errors = append(out.Errors, "build request: "+err.Error())
		return out
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := fetchFn(reqCtx, req)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded):
			out.StatusCode = 408
			out.Errors = append(out.Errors, "request timeout: "+err.Error())
		case errors.Is(err, context.Canceled):
			out.StatusCode = 0
			out.Errors = append(out.Errors, "cancelled: "+err.Error())
		default:
			out.StatusCode = 503
			out.Errors = append(out.Errors, "transport error: "+err.Error())
		}
		return out
	}
	defer func() { _ = resp.Body.Close() }()

	out.StatusCode = resp.StatusCode
	out.ContentType = resp.Header.Get("Content-Type")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out
	}
	if !strings.HasPrefix(strings.ToLower(out.ContentType), "text/") {
		return out
	}

	meter := iocontrol.NewMeasuredReader(resp.Body)
	body, readErr := io.ReadAll(meter)
	out.BytesPerSecond = meter.BytesPerSec()
	if readErr != nil {
		out.Errors = append(out.Errors, "read body: "+readErr.Error())
	}
	out.Body = string(body)
	return out
}
