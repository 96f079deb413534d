package scheduler

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRunner struct {
	runs atomic.Int64
}

func (r *countingRunner) CreateBills(ctx context.Context) error {
	r.runs.Add(1)
	return nil
}

func TestStart_EmptySpecDisablesSchedule(t *testing.T) {
	runner := &countingRunner{}
	s := New("", runner, zap.NewNop())

	require.NoError(t, s.Start())
	s.Stop()

	assert.EqualValues(t, 0, runner.runs.Load())
}

func TestStart_InvalidSpecRejected(t *testing.T) {
	s := New("not a cron spec", &countingRunner{}, zap.NewNop())
	assert.Error(t, s.Start())
}

func TestStartStop_ValidSpec(t *testing.T) {
	s := New("0 9 * * *", &countingRunner{}, zap.NewNop())
	require.NoError(t, s.Start())
	s.Stop()
}

func TestRunBilling_InvokesRunner(t *testing.T) {
	runner := &countingRunner{}
	s := New("0 9 * * *", runner, zap.NewNop())

	s.runBilling()

	assert.EqualValues(t, 1, runner.runs.Load())
}
