package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "listing-generator/internal/common/errors"
	"listing-generator/internal/listing"
)

func setupStore(t *testing.T, opts Options) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, opts), mr
}

func TestLoad_MissingSessionIsFresh(t *testing.T) {
	store, _ := setupStore(t, Options{})

	st, err := store.Load(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Equal(t, listing.NewState(), st)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store, mr := setupStore(t, Options{KeyPrefix: "test:"})
	ctx := context.Background()

	st := listing.NewState()
	st.Form = listing.FormState{Type: listing.ListingTypeRent, Location: "York"}
	st, _ = listing.ApplyValidation(st)
	st = listing.StartSubmission(st)

	require.NoError(t, store.Save(ctx, "abc", st))
	assert.True(t, mr.Exists("test:abc"))

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, st.Form, got.Form)
	assert.Equal(t, listing.Pending(0), got.Status)
	assert.Equal(t, uint64(1), got.Submission)
	assert.Equal(t, "Please describe the property", got.Errors[listing.FieldPropertyDesc])
}

func TestSave_RefreshesTTL(t *testing.T) {
	store, mr := setupStore(t, Options{TTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "abc", listing.NewState()))
	mr.FastForward(50 * time.Second)
	require.NoError(t, store.Save(ctx, "abc", listing.NewState()))
	mr.FastForward(50 * time.Second)

	assert.True(t, mr.Exists(DefaultKeyPrefix+"abc"))

	mr.FastForward(time.Minute)
	assert.False(t, mr.Exists(DefaultKeyPrefix+"abc"))
}

func TestSubmitGuard(t *testing.T) {
	store, _ := setupStore(t, Options{})
	ctx := context.Background()

	ok, err := store.AcquireSubmit(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.AcquireSubmit(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	// other sessions are unaffected
	ok, err = store.AcquireSubmit(ctx, "def")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.ReleaseSubmit(ctx, "abc"))
	ok, err = store.AcquireSubmit(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubmitGuard_Expires(t *testing.T) {
	store, mr := setupStore(t, Options{SubmitLockTTL: 10 * time.Second})
	ctx := context.Background()

	ok, err := store.AcquireSubmit(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(11 * time.Second)

	ok, err = store.AcquireSubmit(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoad_CorruptValue(t *testing.T) {
	store, mr := setupStore(t, Options{})
	require.NoError(t, mr.Set(DefaultKeyPrefix+"abc", "{not json"))

	_, err := store.Load(context.Background(), "abc")
	require.Error(t, err)

	stdErr := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeSessionStoreFailed, stdErr.Code)
}

func TestStore_RedisDown(t *testing.T) {
	store, mr := setupStore(t, Options{})
	mr.Close()

	_, err := store.Load(context.Background(), "abc")
	assert.Error(t, err)

	_, err = store.AcquireSubmit(context.Background(), "abc")
	assert.Error(t, err)
}

func TestLoad_PendingWithoutGuardIsFailed(t *testing.T) {
	store, mr := setupStore(t, Options{SubmitLockTTL: 5 * time.Minute})
	ctx := context.Background()

	st := listing.NewState()
	st.Result = listing.ListingResult{Title: "Earlier"}
	st = listing.StartSubmission(st)

	ok, err := store.AcquireSubmit(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.Save(ctx, "abc", st))

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, listing.Pending(0), got.Status)

	// replica died without settling or releasing
	mr.FastForward(6 * time.Minute)

	got, err = store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, got.Status.IsPending())
	assert.Equal(t, listing.GenericErrorMessage, got.Status.ErrorMessage())
	assert.Equal(t, "Earlier", got.Result.Title)

	ok, err = store.AcquireSubmit(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
}
