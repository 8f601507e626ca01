package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MediaHub/internal/modules/chat/application/service"
	"MediaHub/pkg/zlog"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ArchiveScheduler 按 cron 表达式触发归档，上一轮未结束时跳过本次触发
type ArchiveScheduler struct {
	cron        *cron.Cron
	archiver    service.ChatArchiver
	spec        string
	maxAgeHours int
	timeout     time.Duration

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	entryID cron.EntryID
}

func NewArchiveScheduler(archiver service.ChatArchiver, spec string, maxAgeHours int) *ArchiveScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &ArchiveScheduler{
		// 标准 5 段表达式（不含秒）
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		archiver:    archiver,
		spec:        spec,
		maxAgeHours: maxAgeHours,
		timeout:     time.Hour,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (s *ArchiveScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(s.spec, s.RunOnce)
	if err != nil {
		return fmt.Errorf("schedule chat archive %q: %w", s.spec, err)
	}
	s.entryID = id
	s.cron.Start()
	zlog.Info("chat archive scheduler started", zap.String("cron", s.spec), zap.Int("max_age_hours", s.maxAgeHours))
	return nil
}

// RunOnce 执行一轮归档，Stop 之后触发的不会执行
func (s *ArchiveScheduler) RunOnce() {
	if s.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.archiver.Run(ctx, s.maxAgeHours)
	if err != nil {
		zlog.Error("scheduled chat archive failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return
	}
	zlog.Info("scheduled chat archive done",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("moved", res.Moved),
		zap.Int("deleted", res.Deleted),
		zap.Int("failed", res.Failed))
}

// Stop 取消正在进行的归档并等待其退出
func (s *ArchiveScheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}
