package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiacalc/tiacalc/pkg/scoring"
	"github.com/tiacalc/tiacalc/pkg/types"
)

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestCreateAndGet(t *testing.T) {
	st := New(5 * time.Minute)
	e := st.Create()
	require.NotEmpty(t, e.ID)

	got, err := st.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Nil(t, got.Result, "no result before the first calculation")
	assert.Equal(t, types.DefaultRating*types.NumDimensions, got.Worksheet.Ratings.Sum())
	assert.Equal(t, 1, got.Worksheet.Classes.Len())
}

func TestGet_Missing(t *testing.T) {
	st := New(5 * time.Minute)
	_, err := st.Get("unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_UsesClock(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	st := New(5 * time.Minute)
	st.now = fixedClock(at)

	e := st.Create()
	assert.Equal(t, at, e.UpdatedAt)
}

func TestUpdate(t *testing.T) {
	st := New(5 * time.Minute)
	e := st.Create()

	later := time.Now().Add(time.Minute)
	st.now = fixedClock(later)

	got, err := st.Update(e.ID, func(w *types.Worksheet) error {
		return w.Ratings.Set(types.DimCommunication, 5)
	})
	require.NoError(t, err)
	assert.Equal(t, 5, got.Worksheet.Ratings.Get(types.DimCommunication))
	assert.Equal(t, later, got.UpdatedAt)

	stored, err := st.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Worksheet.Ratings.Get(types.DimCommunication))
}

func TestUpdate_ErrorLeavesWorksheetUnchanged(t *testing.T) {
	st := New(5 * time.Minute)
	e := st.Create()
	only := e.Worksheet.Classes.Records()[0].ID()

	_, err := st.Update(e.ID, func(w *types.Worksheet) error {
		_ = w.Ratings.Set(types.DimCommunication, 1)
		return w.Classes.Remove(only)
	})
	require.ErrorIs(t, err, types.ErrLastClass)

	stored, err := st.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultRating, stored.Worksheet.Ratings.Get(types.DimCommunication))
	assert.Equal(t, 1, stored.Worksheet.Classes.Len())
}

func TestUpdate_Missing(t *testing.T) {
	st := New(5 * time.Minute)
	_, err := st.Update("nope", func(*types.Worksheet) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetResult_Supersedes(t *testing.T) {
	st := New(5 * time.Minute)
	e := st.Create()

	first := scoring.Score(e.Worksheet.Ratings, e.Worksheet.Classes.Records())
	_, err := st.SetResult(e.ID, scoring.DefaultPolicy(), first)
	require.NoError(t, err)

	_, err = st.Update(e.ID, func(w *types.Worksheet) error {
		for _, d := range types.Dimensions {
			_ = w.Ratings.Set(d, 5)
		}
		return nil
	})
	require.NoError(t, err)

	// Edits keep the previous result until the next calculation.
	stored, err := st.Get(e.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Result)
	assert.Equal(t, first, *stored.Result)

	second := scoring.Score(stored.Worksheet.Ratings, stored.Worksheet.Classes.Records())
	got, err := st.SetResult(e.ID, scoring.DefaultPolicy(), second)
	require.NoError(t, err)
	require.NotNil(t, got.Result)
	assert.Equal(t, second, *got.Result)
	assert.NotEqual(t, first.TotalPoints, got.Result.TotalPoints)
}

func TestSetResult_Missing(t *testing.T) {
	st := New(5 * time.Minute)
	_, err := st.SetResult("nope", scoring.DefaultPolicy(), scoring.Result{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetResult_KeepsPolicy(t *testing.T) {
	st := New(5 * time.Minute)
	e := st.Create()

	p := scoring.DefaultPolicy()
	p.RatingFloor = 4.2
	_, err := st.SetResult(e.ID, p, scoring.Result{Designation: scoring.None})
	require.NoError(t, err)

	// The caller's policy is copied, not aliased.
	p.RatingFloor = 1
	p.Tiers[0].MinPoints = 1

	got, err := st.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.2, got.Policy.RatingFloor)
	assert.Equal(t, 90.0, got.Policy.Tiers[0].MinPoints)

	// Edits keep the policy with the result.
	got, err = st.Update(e.ID, func(w *types.Worksheet) error {
		return w.Ratings.Set(types.DimCommunication, 5)
	})
	require.NoError(t, err)
	assert.Equal(t, 4.2, got.Policy.RatingFloor)
}

func TestGet_ReturnsCopy(t *testing.T) {
	st := New(5 * time.Minute)
	e := st.Create()

	e.Worksheet.Classes.Add(10, 10)
	_ = e.Worksheet.Ratings.Set(types.DimClassroomCulture, 1)

	stored, err := st.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Worksheet.Classes.Len())
	assert.Equal(t, types.DefaultRating, stored.Worksheet.Ratings.Get(types.DimClassroomCulture))
}

func TestDelete(t *testing.T) {
	st := New(5 * time.Minute)
	e := st.Create()
	require.Equal(t, 1, st.Count())

	require.NoError(t, st.Delete(e.ID))
	assert.Equal(t, 0, st.Count())
	assert.ErrorIs(t, st.Delete(e.ID), ErrNotFound)
}

func TestExpiry(t *testing.T) {
	st := New(50 * time.Millisecond)
	e := st.Create()

	time.Sleep(120 * time.Millisecond)

	_, err := st.Get(e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, st.Count(), "expired entries stay counted until swept")
	assert.Equal(t, 1, st.Evict())
	assert.Equal(t, 0, st.Count())
}

func TestExpiry_WriteSlidesDeadline(t *testing.T) {
	st := New(300 * time.Millisecond)
	e := st.Create()

	time.Sleep(200 * time.Millisecond)
	_, err := st.Update(e.ID, func(*types.Worksheet) error { return nil })
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	_, err = st.Get(e.ID)
	assert.NoError(t, err, "entry should survive past the original deadline")
}

func TestNoTTL(t *testing.T) {
	st := New(0)
	e := st.Create()
	time.Sleep(20 * time.Millisecond)
	_, err := st.Get(e.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, st.Evict())
}

func TestConcurrentUpdates(t *testing.T) {
	st := New(5 * time.Minute)
	e := st.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Update(e.ID, func(w *types.Worksheet) error {
				w.Classes.Add(1, 1)
				return nil
			})
			if err != nil && !errors.Is(err, ErrNotFound) {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, err := st.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 51, stored.Worksheet.Classes.Len())
}

func TestRun_StopsOnCancel(t *testing.T) {
	st := New(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
