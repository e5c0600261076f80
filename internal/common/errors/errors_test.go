package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{
			name:        "generation failure is retried",
			err:         NewListingGenerationFailedError(fmt.Errorf("status 502")),
			wantCode:    "LISTING_GENERATION_FAILED",
			wantRetries: 3,
		},
		{
			name:        "timeout gets a single retry",
			err:         NewListingGenerationTimeoutError(fmt.Errorf("deadline exceeded")),
			wantCode:    "LISTING_GENERATION_TIMEOUT",
			wantRetries: 1,
		},
		{
			name:        "validation is never retried",
			err:         NewListingValidationError(map[string]string{"location": "Please enter a location"}),
			wantCode:    "LISTING_VALIDATION_FAILED",
			wantRetries: 0,
		},
		{
			name:        "schema validation maps onto listing validation",
			err:         NewInputValidationError("type: required field missing"),
			wantCode:    "LISTING_VALIDATION_FAILED",
			wantRetries: 0,
		},
		{
			name: "unknown code falls back to itself",
			err: &StandardError{
				Code:      "SOMETHING_ELSE",
				Message:   "odd",
				Retryable: true,
			},
			wantCode:    "SOMETHING_ELSE",
			wantRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmnErr.Code)
			assert.Equal(t, tt.wantRetries, bpmnErr.Retries)
			assert.Equal(t, string(tt.err.Code), bpmnErr.ErrorVariables["originalErrorCode"])

			vars := bpmnErr.ToErrorVariables()
			assert.Equal(t, tt.wantCode, vars["errorCode"])
			assert.Equal(t, tt.err.Message, vars["errorMessage"])
		})
	}
}

func TestNewListingValidationError_SkipsEmptyMessages(t *testing.T) {
	err := NewListingValidationError(map[string]string{
		"type":     "Please select a type",
		"location": "",
	})

	assert.Equal(t, ErrCodeListingValidationFailed, err.Code)
	assert.Equal(t, "type: Please select a type", err.Details)
	assert.Equal(t, map[string]interface{}{"type": "Please select a type"}, err.Metadata)
	assert.Contains(t, ConvertToBPMNError(err).ErrorVariables, "errorMetadata")
}

func TestAsStandardError(t *testing.T) {
	cause := stderrors.New("connection refused")

	wrapped := fmt.Errorf("execute: %w", NewListingGenerationFailedError(cause))
	stdErr := AsStandardError(wrapped)
	assert.Equal(t, ErrCodeListingGenerationFailed, stdErr.Code)
	assert.True(t, stderrors.Is(stdErr, cause))

	plain := AsStandardError(cause)
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "connection refused", plain.Details)
	assert.False(t, plain.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeListingValidationFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInputParsingFailed))
	assert.Equal(t, "GENERATION", GetErrorCategory(ErrCodeListingGenerationTimeout))
	assert.Equal(t, "SESSION", GetErrorCategory(ErrCodeSubmissionInFlight))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestRetriesFor(t *testing.T) {
	job := func(retries int32) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Retries: retries}}
	}
	bpmnErr := &BPMNError{Retries: 3}

	require.Equal(t, int32(2), retriesFor(job(3), bpmnErr))
	require.Equal(t, int32(0), retriesFor(job(1), bpmnErr))
	require.Equal(t, int32(3), retriesFor(job(10), bpmnErr))
}
