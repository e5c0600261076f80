package generator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-generator/internal/common/logger"
	"listing-generator/internal/listing"
)

type recordedCall struct {
	status   string
	duration time.Duration
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *fakeRecorder) RecordGeneration(_ context.Context, status string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{status: status, duration: duration})
}

func sampleRequest() listing.Request {
	return listing.NewRequest(listing.FormState{
		Type:         listing.ListingTypeSale,
		Location:     "Leeds",
		PropertyDesc: "3-bed semi",
		KeyElements:  "garden, parking",
	})
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(srv.Client())}, opts...)
	return NewClient(Config{BaseURL: srv.URL}, logger.NewTestLogger(t), opts...)
}

func TestGenerate_SendsRenamedPayload(t *testing.T) {
	var (
		gotPath        string
		gotMethod      string
		gotContentType string
		gotBody        map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"description":{"title":"T"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Generate(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, DefaultPath, gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]interface{}{
		"listingType":      "sale",
		"location":         "Leeds",
		"propertyDetails":  "3-bed semi",
		"keySellingPoints": "garden, parking",
	}, gotBody)
}

func TestGenerate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"description":{
			"title":"T","mainDescription":"M","propertyHighlights":"H",
			"additionalFeatures":"A","locationAdvantages":"L","conclusion":"C"}}`))
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	got, err := newTestClient(t, srv, WithRecorder(rec)).Generate(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, &listing.ListingResult{
		Title:              "T",
		MainDescription:    "M",
		PropertyHighlights: "H",
		AdditionalFeatures: "A",
		LocationAdvantages: "L",
		Conclusion:         "C",
	}, got)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "success", rec.calls[0].status)
}

func TestGenerate_MissingSegmentsAreEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"description":{"title":"Only a title"}}`))
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv).Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "Only a title", got.Title)
	assert.Equal(t, "", got.Conclusion)
}

func TestGenerate_Non2xxFails(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"description":{"title":"ignored"}}`))
			}))
			defer srv.Close()

			rec := &fakeRecorder{}
			got, err := newTestClient(t, srv, WithRecorder(rec)).Generate(context.Background(), sampleRequest())
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrGenerationFailed)
			require.Len(t, rec.calls, 1)
			assert.Equal(t, "failure", rec.calls[0].status)
		})
	}
}

func TestGenerate_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>oops</html>`},
		{name: "missing description", body: `{"title":"T"}`},
		{name: "description not object", body: `{"description":"T"}`},
		{name: "segment not string", body: `{"description":{"title":42}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := newTestClient(t, srv).Generate(context.Background(), sampleRequest())
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestGenerate_SingleAttempt(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Generate(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGenerate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, srv).Generate(ctx, sampleRequest())
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestNewClient_Endpoint(t *testing.T) {
	assert.Equal(t, "http://svc/generate-description", NewClient(Config{BaseURL: "http://svc/"}, nil).Endpoint())
	assert.Equal(t, "http://svc/v2/gen", NewClient(Config{BaseURL: "http://svc", Path: "v2/gen"}, nil).Endpoint())
}
