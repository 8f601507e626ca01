package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	chatRespond "MediaHub/internal/modules/chat/application/dto/respond"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingArchiver struct {
	mu    sync.Mutex
	calls []int
	err   error
}

func (a *countingArchiver) Run(ctx context.Context, maxAgeHours int) (*chatRespond.ArchiveRespond, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, maxAgeHours)
	if a.err != nil {
		return nil, a.err
	}
	return &chatRespond.ArchiveRespond{}, nil
}

func TestArchiveScheduler_RunOnce(t *testing.T) {
	arch := &countingArchiver{}
	s := NewArchiveScheduler(arch, "0 * * * *", 12)
	require.NoError(t, s.Start())

	s.RunOnce()
	arch.err = errors.New("mongo down")
	s.RunOnce()
	assert.Equal(t, []int{12, 12}, arch.calls)

	s.Stop()
	s.RunOnce()
	assert.Len(t, arch.calls, 2)
}

func TestArchiveScheduler_InvalidSpec(t *testing.T) {
	s := NewArchiveScheduler(&countingArchiver{}, "not a cron", 24)
	assert.Error(t, s.Start())
	s.Stop()
}
