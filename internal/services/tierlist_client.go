package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"tiernow/internal/config"
	"tiernow/internal/tracing"
)

// ErrCreateFailed matches every failed creation call, whether the request
// never completed or the API answered with a non-2xx status.
var ErrCreateFailed = errors.New("tierlist creation failed")

// StatusError is returned when the API answered but not with a 2xx.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: api responded %d %s", ErrCreateFailed, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return ErrCreateFailed
}

// TierlistCreator asks the tierlist API to persist a new tierlist.
type TierlistCreator interface {
	Create(ctx context.Context, uuid, name string) error
}

// CreateTierlistRequest is the body of POST /tierlist. The web redirector
// always sends both fields.
type CreateTierlistRequest struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// TierlistClient is the HTTP TierlistCreator used by the web process.
//
// Go Learning Note — http.Client Reuse:
// An http.Client owns a connection pool (its Transport). Creating one per
// request would open a fresh TCP+TLS connection to the API on every page
// load. Build one at startup, share it, and bound each call with Timeout and
// the request context.
type TierlistClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewTierlistClient targets cfg.BaseURL + "/tierlist". A nil httpClient gets
// a default client bounded by cfg.Timeout.
func NewTierlistClient(cfg config.APIConfig, httpClient *http.Client) *TierlistClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &TierlistClient{
		endpoint:   config.TrimBase(cfg.BaseURL) + "/tierlist",
		httpClient: httpClient,
	}
}

var _ TierlistCreator = (*TierlistClient)(nil)

// Create POSTs {"uuid": uuid, "name": name}. It returns nil only for a 2xx
// response. The response body is drained and discarded so the connection can
// be reused.
func (c *TierlistClient) Create(ctx context.Context, uuid, name string) (err error) {
	ctx, span := tracing.Tracer().Start(ctx, "tierlist.create",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("tierlist.uuid", uuid),
			attribute.String("http.method", http.MethodPost),
			attribute.String("http.url", c.endpoint),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(CreateTierlistRequest{UUID: uuid, Name: name})
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrCreateFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrCreateFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
