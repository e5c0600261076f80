package listing

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"listing-generator/internal/common/logger"
	"listing-generator/internal/common/metrics"
)

var (
	ErrValidationFailed   = errors.New("listing form failed validation")
	ErrSubmissionInFlight = errors.New("listing submission already in flight")
	ErrServiceClosed      = errors.New("listing service closed")
)

type Config struct {
	// ProgressInterval is how long a submission stays on the first
	// progress phrase. Zero keeps it there until the call returns.
	ProgressInterval     time.Duration
	ClearResultOnFailure bool
	// SettleTimeout bounds the final save and guard release, which run
	// even after the submission context is cancelled.
	SettleTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		ProgressInterval: 2 * time.Second,
		SettleTimeout:    5 * time.Second,
	}
}

// Service is the form controller plus submission pipeline for any number
// of form instances, each addressed by id.
type Service struct {
	config    *Config
	generator Generator
	store     Store
	logger    logger.Logger

	// stripes serialise load-modify-save cycles per form instance so a
	// field change cannot overwrite a settling submission.
	stripes [lockStripes]sync.Mutex

	closeMu sync.RWMutex
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

const lockStripes = 64

func NewService(cfg *Config, generator Generator, store Store, log logger.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		config:    cfg,
		generator: generator,
		store:     store,
		logger:    log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// State returns the current state of form id.
func (s *Service) State(ctx context.Context, id string) (State, error) {
	return s.store.Load(ctx, id)
}

// ChangeField is onFieldChange: set the value, clear that field's error.
func (s *Service) ChangeField(ctx context.Context, id string, field Field, value string) (State, error) {
	return s.update(ctx, id, func(st State) (State, error) {
		return ApplyFieldChange(st, field, value)
	})
}

// SelectType is onTypeSelect.
func (s *Service) SelectType(ctx context.Context, id string, value ListingType) (State, error) {
	return s.update(ctx, id, func(st State) (State, error) {
		return ApplyTypeSelect(st, value), nil
	})
}

// ChangeForm applies a fully posted form; see ApplyFormChanges.
func (s *Service) ChangeForm(ctx context.Context, id string, form FormState) (State, error) {
	return s.update(ctx, id, func(st State) (State, error) {
		return ApplyFormChanges(st, form)
	})
}

// Submit validates and, when valid, generates the listing before
// returning. The returned error is ErrValidationFailed,
// ErrSubmissionInFlight, ErrServiceClosed or a store failure; generation
// failures are reported through the returned State only.
func (s *Service) Submit(ctx context.Context, id string) (State, error) {
	st, seq, err := s.begin(ctx, id)
	if err != nil {
		return st, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	return s.run(runCtx, id, seq, st.Form)
}

// StartSubmit does the synchronous part of Submit (guard, validation,
// entering pending) and leaves the network call to a goroutine owned by
// the service. The returned State is the pending one.
func (s *Service) StartSubmit(ctx context.Context, id string) (State, error) {
	st, seq, err := s.begin(ctx, id)
	if err != nil {
		return st, err
	}

	go func() {
		if _, err := s.run(s.ctx, id, seq, st.Form); err != nil {
			s.logger.Error("failed to settle listing submission", map[string]interface{}{
				"sessionId":  id,
				"submission": seq,
				"error":      err.Error(),
			})
		}
	}()
	return st, nil
}

// Close cancels in-flight submissions and waits for them to settle.
func (s *Service) Close() {
	s.closeMu.Lock()
	s.closed = true
	s.closeMu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Service) begin(ctx context.Context, id string) (State, uint64, error) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return State{}, 0, ErrServiceClosed
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	acquired, err := s.store.AcquireSubmit(ctx, id)
	if err != nil {
		return State{}, 0, fmt.Errorf("acquire submit guard for %s: %w", id, err)
	}
	if !acquired {
		metrics.ListingSubmissions.WithLabelValues("rejected").Inc()
		st, loadErr := s.store.Load(ctx, id)
		if loadErr != nil {
			return State{}, 0, fmt.Errorf("load session %s: %w", id, loadErr)
		}
		return st, 0, ErrSubmissionInFlight
	}

	started := false
	defer func() {
		if !started {
			if err := s.store.ReleaseSubmit(ctx, id); err != nil {
				s.logger.Warn("failed to release submit guard", map[string]interface{}{
					"sessionId": id,
					"error":     err.Error(),
				})
			}
		}
	}()

	st, err := s.store.Load(ctx, id)
	if err != nil {
		return State{}, 0, fmt.Errorf("load session %s: %w", id, err)
	}

	st, ok := ApplyValidation(st)
	if !ok {
		metrics.ListingSubmissions.WithLabelValues("invalid").Inc()
		if err := s.store.Save(ctx, id, st); err != nil {
			return st, 0, fmt.Errorf("save session %s: %w", id, err)
		}
		return st, 0, ErrValidationFailed
	}

	st = StartSubmission(st)
	if err := s.store.Save(ctx, id, st); err != nil {
		return st, 0, fmt.Errorf("save session %s: %w", id, err)
	}

	started = true
	s.wg.Add(1)
	metrics.ListingSubmissionsInFlight.Inc()
	return st, st.Submission, nil
}

func (s *Service) run(ctx context.Context, id string, seq uint64, form FormState) (State, error) {
	defer s.wg.Done()
	defer metrics.ListingSubmissionsInFlight.Dec()

	log := s.logger.With(map[string]interface{}{
		"sessionId":  id,
		"submission": seq,
	})
	log.Info("listing submission started", map[string]interface{}{
		"listingType": string(form.Type),
	})

	done := make(chan struct{})
	var progress sync.WaitGroup
	if s.config.ProgressInterval > 0 {
		progress.Add(1)
		go func() {
			defer progress.Done()
			s.trackProgress(ctx, id, seq, done, log)
		}()
	}

	result, genErr := s.generator.Generate(ctx, NewRequest(form))
	close(done)
	progress.Wait()

	if genErr != nil {
		metrics.ListingSubmissions.WithLabelValues("failed").Inc()
		log.WithError(genErr).Error("listing generation failed", nil)
	} else {
		metrics.ListingSubmissions.WithLabelValues("succeeded").Inc()
		log.Info("listing generated", map[string]interface{}{
			"title": result.Title,
		})
	}

	// The session must never stay pending, so settling outlives ctx.
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.SettleTimeout)
	defer cancel()

	policy := ResultPolicy{ClearResultOnFailure: s.config.ClearResultOnFailure}
	final, err := s.update(settleCtx, id, func(st State) (State, error) {
		return ApplySubmissionResult(st, seq, result, genErr, policy), nil
	})
	if relErr := s.store.ReleaseSubmit(settleCtx, id); relErr != nil {
		log.WithError(relErr).Warn("failed to release submit guard", nil)
	}
	return final, err
}

func (s *Service) trackProgress(ctx context.Context, id string, seq uint64, done <-chan struct{}, log logger.Logger) {
	timer := time.NewTimer(s.config.ProgressInterval)
	defer timer.Stop()

	select {
	case <-timer.C:
		if _, err := s.update(ctx, id, func(st State) (State, error) {
			return AdvanceProgress(st, seq), nil
		}); err != nil {
			log.WithError(err).Warn("failed to advance progress phrase", nil)
		}
	case <-done:
	case <-ctx.Done():
	}
}

func (s *Service) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.stripes[h.Sum32()%lockStripes]
}

func (s *Service) update(ctx context.Context, id string, fn func(State) (State, error)) (State, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	st, err := s.store.Load(ctx, id)
	if err != nil {
		return State{}, fmt.Errorf("load session %s: %w", id, err)
	}
	next, err := fn(st)
	if err != nil {
		return st, err
	}
	if err := s.store.Save(ctx, id, next); err != nil {
		return st, fmt.Errorf("save session %s: %w", id, err)
	}
	return next, nil
}
