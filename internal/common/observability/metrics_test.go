package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordGeneration(t *testing.T) {
	obs, err := New("listing-generator-test")
	require.NoError(t, err)
	defer obs.Shutdown()

	assert.NotNil(t, obs.generationCounter)
	assert.NotNil(t, obs.generationDuration)
	assert.NotPanics(t, func() {
		obs.RecordGeneration(context.Background(), "success", 120*time.Millisecond)
		obs.RecordGeneration(context.Background(), "failure", time.Second)
	})
}

func TestObservability_ZeroValueIsInert(t *testing.T) {
	var obs Observability
	assert.NotPanics(t, func() {
		obs.RecordGeneration(context.Background(), "success", time.Millisecond)
		obs.Shutdown()
	})
}
