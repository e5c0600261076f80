package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-generator/internal/common/logger"
	"listing-generator/internal/listing"
)

type scriptedPrompter struct {
	answers map[listing.Field]string
	asked   []listing.Field
}

func (p *scriptedPrompter) Ask(field listing.Field, _ string) (string, error) {
	p.asked = append(p.asked, field)
	return p.answers[field], nil
}

type stubGenerator struct {
	delay  time.Duration
	result *listing.ListingResult
	err    error
	calls  int
}

func (g *stubGenerator) Generate(ctx context.Context, _ listing.Request) (*listing.ListingResult, error) {
	g.calls++
	select {
	case <-time.After(g.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.result, g.err
}

func newService(t *testing.T, gen listing.Generator, progress time.Duration) *listing.Service {
	t.Helper()
	svc := listing.NewService(&listing.Config{ProgressInterval: progress}, gen, listing.NewMemoryStore(), logger.NewTestLogger(t))
	t.Cleanup(svc.Close)
	return svc
}

func TestGenerate_PromptsOnlyFailingFields(t *testing.T) {
	gen := &stubGenerator{result: &listing.ListingResult{Title: "T", Conclusion: "C"}}
	svc := newService(t, gen, 0)
	prompter := &scriptedPrompter{answers: map[listing.Field]string{
		listing.FieldType:        "rent",
		listing.FieldKeyElements: "balcony",
	}}
	var out, errOut bytes.Buffer

	result, err := Generate(context.Background(), svc, Options{
		Form: listing.FormState{
			Location:     "York",
			PropertyDesc: "2-bed flat",
		},
		Prompter:     prompter,
		Out:          &out,
		ErrOut:       &errOut,
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, []listing.Field{listing.FieldType, listing.FieldKeyElements}, prompter.asked)
	assert.Contains(t, errOut.String(), "Type: Please select a type")
	assert.Contains(t, errOut.String(), "Key elements: Please enter key elements")
	assert.NotContains(t, errOut.String(), "Please enter a location")
	assert.Equal(t, "T", result.Title)
	assert.Equal(t, "T\n\nC\n", out.String())
	assert.Equal(t, 1, gen.calls)
}

func TestGenerate_NoPrompterReturnsValidationError(t *testing.T) {
	gen := &stubGenerator{}
	svc := newService(t, gen, 0)
	var out, errOut bytes.Buffer

	_, err := Generate(context.Background(), svc, Options{
		Form:   listing.FormState{Type: listing.ListingTypeSale},
		Out:    &out,
		ErrOut: &errOut,
	})
	require.ErrorIs(t, err, listing.ErrValidationFailed)
	assert.Contains(t, err.Error(), "Please enter a location")
	assert.Equal(t, 0, gen.calls)
}

func TestGenerate_PrintsProgressAndJSON(t *testing.T) {
	gen := &stubGenerator{
		delay:  50 * time.Millisecond,
		result: &listing.ListingResult{Title: "Bright flat", MainDescription: "Near the park."},
	}
	svc := newService(t, gen, 10*time.Millisecond)
	var out, errOut bytes.Buffer

	_, err := Generate(context.Background(), svc, Options{
		Form: listing.FormState{
			Type:         listing.ListingTypeRent,
			Location:     "York",
			PropertyDesc: "2-bed flat",
			KeyElements:  "balcony",
		},
		JSON:         true,
		Out:          &out,
		ErrOut:       &errOut,
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)

	assert.Contains(t, errOut.String(), listing.ProgressPhrases[0])
	assert.Contains(t, errOut.String(), listing.ProgressPhrases[1])

	var got listing.ListingResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "Bright flat", got.Title)
}

func TestGenerate_FailurePrintsGenericMessage(t *testing.T) {
	gen := &stubGenerator{err: errors.New("status 500")}
	svc := newService(t, gen, 0)
	var out, errOut bytes.Buffer

	_, err := Generate(context.Background(), svc, Options{
		Form: listing.FormState{
			Type:         listing.ListingTypeSale,
			Location:     "Leeds",
			PropertyDesc: "semi",
			KeyElements:  "garden",
		},
		Out:          &out,
		ErrOut:       &errOut,
		PollInterval: time.Millisecond,
	})
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.Contains(t, errOut.String(), listing.GenericErrorMessage)
	assert.NotContains(t, errOut.String(), "status 500")
	assert.Empty(t, out.String())
}
