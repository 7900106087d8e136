package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultFetchTimeout = 30 * time.Second
	maxPayloadBytes     = 32 << 20
)

var (
	ErrUpstreamUnavailable = errors.New("external data source unavailable")
	ErrMalformedPayload    = errors.New("external data source returned an unexpected payload")
)

// envelopeKeys are the object keys under which feeds wrap their record list, checked in order.
var envelopeKeys = []string{"data", "players", "results", "items"}

// Fetcher downloads player records from a third-party JSON endpoint.
// Timeout bounds the whole fetch, retries included.
type Fetcher struct {
	Client     *http.Client
	Timeout    time.Duration
	MaxRetries uint64
	BaseDelay  time.Duration
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		Client:     &http.Client{},
		Timeout:    timeout,
		MaxRetries: 3,
		BaseDelay:  250 * time.Millisecond,
	}
}

// Fetch returns every record the endpoint serves or an error. It never returns a partial list.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]RawRecord, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid url %q", ErrUpstreamUnavailable, rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	l := logging.FromContext(ctx).With("component", "fetcher", "host", u.Host)
	backoff := retry.WithMaxRetries(f.MaxRetries, retry.NewExponential(f.BaseDelay))

	var body []byte
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		b, err := f.get(ctx, u.String())
		if err != nil {
			l.Warn("fetch_attempt_failed", "attempt", attempt, "error", err)
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}
	l.Info("fetch_completed", "records", len(records), "attempts", attempt)
	return records, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, retry.RetryableError(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, retry.RetryableError(err)
	}
	if len(body) > maxPayloadBytes {
		return nil, fmt.Errorf("payload larger than %d bytes", maxPayloadBytes)
	}
	return body, nil
}

// decodeRecords accepts a bare JSON array of objects or an object wrapping one.
func decodeRecords(body []byte) ([]RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range envelopeKeys {
			if list, ok := v[key].([]any); ok {
				items = list
				break
			}
		}
		if items == nil {
			return nil, fmt.Errorf("%w: no record list under any of %v", ErrMalformedPayload, envelopeKeys)
		}
	default:
		return nil, fmt.Errorf("%w: expected an array or object", ErrMalformedPayload)
	}

	records := make([]RawRecord, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		rec := make(RawRecord, len(obj))
		for k, v := range obj {
			if s, ok := scalarString(v); ok {
				rec[k] = s
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
