// Package generator talks to the remote listing generation service.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	commonhttp "listing-generator/internal/common/http"
	"listing-generator/internal/common/logger"
	"listing-generator/internal/common/metrics"
	"listing-generator/internal/listing"
)

const DefaultPath = "/generate-description"

var (
	ErrGenerationFailed  = errors.New("listing generation failed")
	ErrMalformedResponse = errors.New("malformed generation response")
)

// responseSchema accepts any subset of the six segments as long as each
// one present is a string.
const responseSchema = `{
	"type": "object",
	"required": ["description"],
	"properties": {
		"description": {
			"type": "object",
			"properties": {
				"title":              {"type": "string"},
				"mainDescription":    {"type": "string"},
				"propertyHighlights": {"type": "string"},
				"additionalFeatures": {"type": "string"},
				"locationAdvantages": {"type": "string"},
				"conclusion":         {"type": "string"}
			}
		}
	}
}`

var compiledSchema = mustCompileSchema(responseSchema)

func mustCompileSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("generator: invalid response schema: %v", err))
	}
	return schema
}

type Config struct {
	BaseURL string
	Path    string
	// Timeout of the underlying HTTP client. Zero leaves the request bound
	// only by the caller's context.
	Timeout time.Duration
}

// Recorder receives one observation per call. observability.Observability
// implements it.
type Recorder interface {
	RecordGeneration(ctx context.Context, status string, duration time.Duration)
}

type Option func(*Client)

// WithHTTPClient replaces the client built from Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = commonhttp.Wrap(hc)
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

type Client struct {
	endpoint string
	http     *commonhttp.Client
	logger   logger.Logger
	recorder Recorder
	tracer   trace.Tracer
}

type response struct {
	Description listing.ListingResult `json:"description"`
}

func NewClient(cfg Config, log logger.Logger, opts ...Option) *Client {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	c := &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + path,
		http:     commonhttp.NewClient(cfg.Timeout),
		logger:   log,
		tracer:   otel.Tracer("listing-generator/generator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Generate performs exactly one POST. Any non-2xx status, transport error
// or body that does not match the response schema is a failure.
func (c *Client) Generate(ctx context.Context, req listing.Request) (*listing.ListingResult, error) {
	ctx, span := c.tracer.Start(ctx, "listing.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("listing.type", req.ListingType),
			attribute.String("http.url", c.endpoint),
		),
	)
	defer span.End()

	start := time.Now()
	result, status, err := c.do(ctx, req)
	duration := time.Since(start)

	label := "success"
	if err != nil {
		label = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if status != 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}

	metrics.GenerationRequests.WithLabelValues(label).Inc()
	metrics.GenerationDuration.Observe(duration.Seconds())
	if c.recorder != nil {
		c.recorder.RecordGeneration(ctx, label, duration)
	}

	if err != nil {
		c.logger.Warn("Listing generation call failed", map[string]interface{}{
			"endpoint":   c.endpoint,
			"statusCode": status,
			"durationMs": duration.Milliseconds(),
			"error":      err.Error(),
		})
		return nil, err
	}

	c.logger.Debug("Listing generation call succeeded", map[string]interface{}{
		"endpoint":   c.endpoint,
		"durationMs": duration.Milliseconds(),
	})
	return result, nil
}

func (c *Client) do(ctx context.Context, req listing.Request) (*listing.ListingResult, int, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %v", ErrGenerationFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d", ErrGenerationFailed, resp.StatusCode)
	}

	result, err := decode(raw)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return result, resp.StatusCode, nil
}

func decode(raw []byte) (*listing.ListingResult, error) {
	validation, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !validation.Valid() {
		errs := make([]string, len(validation.Errors()))
		for i, desc := range validation.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(errs, "; "))
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &out.Description, nil
}
