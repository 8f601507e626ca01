package service

import (
	"context"
	"fmt"
	"strings"

	"MediaHub/internal/modules/push/domain"
	"MediaHub/pkg/xerr"
	"MediaHub/pkg/zlog"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize      = domain.MaxMulticastTokens
	DefaultMaxConcurrency = 5
	DefaultMaxErrors      = 10
)

type GatewayConfig struct {
	BatchSize      int
	MaxConcurrency int
	MaxErrors      int
	// RatePerSecond 限制每秒发起的批次数，<=0 不限
	RatePerSecond int
}

// PushGateway 对外部推送网关的无状态批量封装
type PushGateway interface {
	// Send 部分失败只体现在计数中，仅在 title/body 缺失时返回错误
	Send(ctx context.Context, msg domain.Message, tokens []string) (*domain.SendResult, error)
}

type pushGatewayImpl struct {
	mc      domain.Multicaster
	cfg     GatewayConfig
	limiter ratelimit.Limiter
}

func NewPushGateway(mc domain.Multicaster, cfg GatewayConfig) PushGateway {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize > domain.MaxMulticastTokens {
		zlog.Warn("push batch size exceeds gateway limit, clamped",
			zap.Int("configured", cfg.BatchSize), zap.Int("limit", domain.MaxMulticastTokens))
		cfg.BatchSize = domain.MaxMulticastTokens
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = DefaultMaxErrors
	}
	limiter := ratelimit.NewUnlimited()
	if cfg.RatePerSecond > 0 {
		limiter = ratelimit.New(cfg.RatePerSecond)
	}
	return &pushGatewayImpl{mc: mc, cfg: cfg, limiter: limiter}
}

type batchOutcome struct {
	success int
	failure int
	errors  []string
}

func (g *pushGatewayImpl) Send(ctx context.Context, msg domain.Message, tokens []string) (*domain.SendResult, error) {
	if strings.TrimSpace(msg.Title) == "" || strings.TrimSpace(msg.Body) == "" {
		return nil, xerr.New(xerr.BadRequest, "title 和 body 不能为空")
	}
	if msg.Data == nil {
		msg.Data = map[string]string{}
	}

	unique := DedupeTokens(tokens)
	res := &domain.SendResult{Total: len(unique), Errors: []string{}}
	if len(unique) == 0 {
		return res, nil
	}

	batches := chunk(unique, g.cfg.BatchSize)
	outcomes := make([]batchOutcome, len(batches))

	var eg errgroup.Group
	eg.SetLimit(g.cfg.MaxConcurrency)
	for i := range batches {
		i := i
		eg.Go(func() error {
			outcomes[i] = g.sendBatch(ctx, msg, batches[i], i, i*g.cfg.BatchSize)
			return nil
		})
	}
	_ = eg.Wait()

	for _, o := range outcomes {
		res.SuccessCount += o.success
		res.FailureCount += o.failure
		for _, e := range o.errors {
			if len(res.Errors) >= g.cfg.MaxErrors {
				break
			}
			res.Errors = append(res.Errors, e)
		}
	}

	if res.FailureCount > 0 {
		zlog.Warn("push send finished with failures",
			zap.Int("total", res.Total), zap.Int("success", res.SuccessCount), zap.Int("failure", res.FailureCount))
	}
	return res, nil
}

// sendBatch offset 为该批第一个 token 在去重后列表中的下标
func (g *pushGatewayImpl) sendBatch(ctx context.Context, msg domain.Message, batch []string, idx int, offset int) batchOutcome {
	var out batchOutcome
	if err := ctx.Err(); err != nil {
		out.failure = len(batch)
		out.errors = []string{fmt.Sprintf("batch %d: %v", idx, err)}
		return out
	}
	g.limiter.Take()

	resp, err := g.mc.SendMulticast(ctx, msg, batch)
	if err != nil {
		zlog.Warn("push batch failed", zap.Int("batch", idx), zap.Int("size", len(batch)), zap.Error(err))
		out.failure = len(batch)
		out.errors = []string{fmt.Sprintf("batch %d: %v", idx, err)}
		return out
	}

	for j := range batch {
		if resp == nil || j >= len(resp.Responses) {
			out.failure++
			if len(out.errors) < g.cfg.MaxErrors {
				out.errors = append(out.errors, fmt.Sprintf("token %d: missing response", offset+j))
			}
			continue
		}
		r := resp.Responses[j]
		if r.Success {
			out.success++
			continue
		}
		out.failure++
		if len(out.errors) < g.cfg.MaxErrors {
			reason := "unknown error"
			if r.Error != nil {
				reason = r.Error.Error()
			}
			out.errors = append(out.errors, fmt.Sprintf("token %d: %s", offset+j, reason))
		}
	}
	return out
}

// DedupeTokens 保序去重并丢弃空 token
func DedupeTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func chunk(tokens []string, size int) [][]string {
	out := make([][]string, 0, (len(tokens)+size-1)/size)
	for start := 0; start < len(tokens); start += size {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		out = append(out, tokens[start:end])
	}
	return out
}
