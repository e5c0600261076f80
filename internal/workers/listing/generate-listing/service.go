package generatelisting

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"

	"listing-generator/internal/common/errors"
	"listing-generator/internal/common/logger"
	"listing-generator/internal/listing"
)

// Service runs the listing pipeline for one job at a time per job key. Each
// job gets its own short-lived form instance.
type Service struct {
	config   *Config
	logger   logger.Logger
	store    *listing.MemoryStore
	listings *listing.Service
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	store := listing.NewMemoryStore()
	return &Service{
		config: config,
		logger: deps.Logger,
		store:  store,
		// no one watches progress phrases inside a process
		listings: listing.NewService(&listing.Config{}, deps.Generator, store, deps.Logger),
	}
}

func (s *Service) Execute(ctx context.Context, jobKey int64, input *Input) (*Output, error) {
	id := strconv.FormatInt(jobKey, 10)
	defer s.store.Delete(id)

	listingType, err := listing.ParseListingType(input.Type)
	if err != nil {
		return nil, errors.NewInputValidationError(err.Error())
	}

	form := listing.FormState{
		Type:         listingType,
		Location:     input.Location,
		PropertyDesc: input.PropertyDesc,
		KeyElements:  input.KeyElements,
	}
	if _, err := s.listings.ChangeForm(ctx, id, form); err != nil {
		return nil, errors.NewInputValidationError(err.Error())
	}

	st, err := s.listings.Submit(ctx, id)
	switch {
	case stderrors.Is(err, listing.ErrValidationFailed):
		return nil, errors.NewListingValidationError(st.Errors.Strings())
	case stderrors.Is(err, listing.ErrSubmissionInFlight):
		return nil, errors.NewListingGenerationFailedError(fmt.Errorf("job %d: %w", jobKey, err))
	case err != nil:
		return nil, errors.NewListingGenerationFailedError(err)
	}

	if st.Status.Phase != listing.PhaseSucceeded {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.NewListingGenerationTimeoutError(ctx.Err())
		}
		return nil, errors.NewListingGenerationFailedError(fmt.Errorf("%s", st.Status.ErrorMessage()))
	}

	s.logger.Info("Listing generated for job", map[string]interface{}{
		"jobKey": jobKey,
		"title":  st.Result.Title,
	})

	return &Output{
		Listing:          st.Result,
		ListingGenerated: true,
	}, nil
}

// Close waits for submissions still settling.
func (s *Service) Close() {
	s.listings.Close()
}
