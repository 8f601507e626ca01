package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"MediaHub/internal/modules/notification/domain/entity"
	"MediaHub/internal/modules/notification/domain/repository"
	pushDomain "MediaHub/internal/modules/push/domain"
	"MediaHub/pkg/util"
	"MediaHub/pkg/zlog"

	"go.uber.org/zap"
)

const maxErrorSummaryLen = 2000

// PushLogRecorder 为每次网关发送写一行 push_notification_log。
// 写日志失败只进入错误通道，不影响推送本身。
type PushLogRecorder struct {
	repo    repository.PushLogRepository
	timeout time.Duration

	// mu 保护 closed，并保证 Close 开始后不再 wg.Add 或向 errCh 发送
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	errCh  chan error
	done   chan struct{}
	once   sync.Once
}

func NewPushLogRecorder(repo repository.PushLogRepository) *PushLogRecorder {
	r := &PushLogRecorder{
		repo:    repo,
		timeout: 5 * time.Second,
		errCh:   make(chan error, 64),
		done:    make(chan struct{}),
	}
	go r.drain()
	return r
}

func (r *PushLogRecorder) drain() {
	defer close(r.done)
	for err := range r.errCh {
		zlog.Warn("push log write failed", zap.Error(err))
	}
}

func (r *PushLogRecorder) report(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		zlog.Warn("push log write failed after close", zap.Error(err))
		return
	}
	select {
	case r.errCh <- err:
	default:
		zlog.Warn("push log error channel full", zap.Error(err))
	}
}

// Track 先写 pending 日志，再调用网关，最后异步回写结果
func (r *PushLogRecorder) Track(ctx context.Context, sender PushSender, msg pushDomain.Message, tokens []string) (*pushDomain.SendResult, int64, error) {
	logID := r.begin(ctx, msg, len(tokens))

	res, err := sender.Send(ctx, msg, tokens)
	if err != nil {
		r.complete(logID, pushResult{
			TokenCount: len(tokens), Failure: len(tokens),
			Status: entity.PushStatusFailed, ErrorSummary: err.Error(),
		})
		return nil, logID, err
	}
	// token_count 以去重后的数量为准，与成功失败计数一致
	r.complete(logID, pushResult{
		TokenCount:   res.Total,
		Success:      res.SuccessCount,
		Failure:      res.FailureCount,
		Status:       entity.PushStatusOf(res.SuccessCount, res.FailureCount),
		ErrorSummary: strings.Join(res.Errors, "; "),
	})
	return res, logID, nil
}

func (r *PushLogRecorder) begin(ctx context.Context, msg pushDomain.Message, tokenCount int) int64 {
	if r == nil || r.repo == nil || r.isClosed() {
		return 0
	}
	customData := ""
	if len(msg.Data) > 0 {
		if b, err := json.Marshal(msg.Data); err == nil {
			customData = string(b)
		}
	}
	row := &entity.PushNotificationLog{
		Title:      msg.Title,
		Message:    msg.Body,
		ImageUrl:   msg.ImageUrl,
		CustomData: customData,
		TokenCount: tokenCount,
		Status:     entity.PushStatusPending,
	}
	if err := r.repo.Create(ctx, row); err != nil {
		r.report(err)
		return 0
	}
	return row.Id
}

type pushResult = repository.PushLogResult

func (r *PushLogRecorder) complete(logID int64, res pushResult) {
	if r == nil || r.repo == nil || logID == 0 {
		return
	}
	res.ErrorSummary = util.Truncate(res.ErrorSummary, maxErrorSummaryLen)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		zlog.Warn("push log recorder closed, result dropped", zap.Int64("log_id", logID), zap.String("status", res.Status))
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.repo.UpdateResult(ctx, logID, res); err != nil {
			r.report(err)
		}
	}()
}

// Flush 等待所有已发起的结果回写完成
func (r *PushLogRecorder) Flush() {
	r.wg.Wait()
}

func (r *PushLogRecorder) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Close 之后 Track 仍可调用，只是不再写日志
func (r *PushLogRecorder) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		r.wg.Wait()
		close(r.errCh)
		<-r.done
	})
}
