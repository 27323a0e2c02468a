package learner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sportlines/totalcast/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCalibrator struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
	err     error
}

func (s *stubCalibrator) Calibrate(_ context.Context, season int, _, _ string) (*data.CoefficientSet, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()

	if call == 1 && s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}

	return &data.CoefficientSet{Season: season, Version: call}, nil
}

func (s *stubCalibrator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRunnerSharesConcurrentCalibrations(t *testing.T) {
	stub := &stubCalibrator{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := NewRunner(stub)

	results := make(chan *data.CoefficientSet, 4)
	errs := make(chan error, 4)

	for i := 0; i < 4; i++ {
		go func() {
			cs, err := r.CalibrateSeason(context.Background(), 2025, "2025-01-01", "2025-03-01")
			if err != nil {
				errs <- err
				return
			}
			results <- cs
		}()
	}

	// hold the first run open until the rest have joined the flight
	<-stub.started
	time.Sleep(50 * time.Millisecond)
	close(stub.release)

	for i := 0; i < 4; i++ {
		select {
		case cs := <-results:
			assert.Equal(t, 1, cs.Version)
		case err := <-errs:
			t.Fatalf("unexpected error: %v", err)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for calibration")
		}
	}

	assert.Equal(t, 1, stub.callCount())
}

func TestRunnerSequentialRunsAreIndependent(t *testing.T) {
	stub := &stubCalibrator{}
	r := NewRunner(stub)
	ctx := context.Background()

	first, err := r.CalibrateSeason(ctx, 2025, "2025-01-01", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := r.CalibrateSeason(ctx, 2025, "2025-01-01", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	assert.Equal(t, 2, stub.callCount())
}

func TestRunnerPropagatesErrors(t *testing.T) {
	wantErr := errors.New("fit exploded")
	r := NewRunner(&stubCalibrator{err: wantErr})

	_, err := r.CalibrateSeason(context.Background(), 2025, "2025-01-01", "2025-03-01")
	assert.ErrorIs(t, err, wantErr)
}

func TestRunnerWithLearner(t *testing.T) {
	s := seedTrainingStore(t, nil)
	r := NewRunner(New(s))
	ctx := context.Background()

	cs, err := r.CalibrateSeason(ctx, 2025, "2025-01-01", "2025-12-31")
	require.NoError(t, err)
	assert.Equal(t, 1, cs.Version)

	active, err := s.GetActiveCoefficientSet(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, cs.ID, active.ID)
}
