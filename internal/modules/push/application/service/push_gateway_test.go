package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MediaHub/internal/modules/push/domain"
	"MediaHub/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMulticaster struct {
	mu        sync.Mutex
	calls     [][]string
	inFlight  int32
	maxFlight int32
	delay     time.Duration
	// failToken 以该前缀开头的 token 记为失败
	failToken string
	// failBatch 第一个 token 等于该值的批次整体失败
	failBatch string
}

func (f *fakeMulticaster) SendMulticast(ctx context.Context, msg domain.Message, tokens []string) (*domain.BatchResponse, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		cur := atomic.LoadInt32(&f.maxFlight)
		if n <= cur || atomic.CompareAndSwapInt32(&f.maxFlight, cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), tokens...))
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failBatch != "" && tokens[0] == f.failBatch {
		return nil, errors.New("transport error")
	}

	resp := &domain.BatchResponse{}
	for _, t := range tokens {
		if f.failToken != "" && strings.HasPrefix(t, f.failToken) {
			resp.Responses = append(resp.Responses, domain.TokenResponse{Error: errors.New("unregistered")})
			continue
		}
		resp.Responses = append(resp.Responses, domain.TokenResponse{Success: true, MessageId: "m-" + t})
	}
	return resp, nil
}

func makeTokens(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%04d", prefix, i)
	}
	return out
}

var testMsg = domain.Message{Title: "hi", Body: "there"}

func TestSend_SplitsIntoBatches(t *testing.T) {
	mc := &fakeMulticaster{}
	gw := NewPushGateway(mc, GatewayConfig{BatchSize: 500, MaxConcurrency: 5})

	tokens := makeTokens("t", 1200)
	// 重复 token 不计入 total
	tokens = append(tokens, tokens[:300]...)

	res, err := gw.Send(context.Background(), testMsg, tokens)
	require.NoError(t, err)

	assert.Len(t, mc.calls, 3)
	for _, c := range mc.calls {
		assert.LessOrEqual(t, len(c), 500)
	}
	assert.Equal(t, 1200, res.Total)
	assert.Equal(t, 1200, res.SuccessCount+res.FailureCount)
	assert.Equal(t, 1200, res.SuccessCount)
}

func TestSend_BatchSizeClampedToGatewayLimit(t *testing.T) {
	mc := &fakeMulticaster{}
	gw := NewPushGateway(mc, GatewayConfig{BatchSize: 1000, MaxConcurrency: 5})

	res, err := gw.Send(context.Background(), testMsg, makeTokens("t", 1200))
	require.NoError(t, err)

	assert.Len(t, mc.calls, 3)
	for _, c := range mc.calls {
		assert.LessOrEqual(t, len(c), domain.MaxMulticastTokens)
	}
	assert.Equal(t, 1200, res.SuccessCount)
}

func TestSend_EmptyTokensIsNoop(t *testing.T) {
	mc := &fakeMulticaster{}
	gw := NewPushGateway(mc, GatewayConfig{})

	res, err := gw.Send(context.Background(), testMsg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.SuccessCount)
	assert.Equal(t, 0, res.FailureCount)
	assert.Empty(t, mc.calls)

	res, err = gw.Send(context.Background(), testMsg, []string{"", "  "})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Empty(t, mc.calls)
}

func TestSend_BoundsConcurrency(t *testing.T) {
	mc := &fakeMulticaster{delay: 20 * time.Millisecond}
	gw := NewPushGateway(mc, GatewayConfig{BatchSize: 10, MaxConcurrency: 5})

	res, err := gw.Send(context.Background(), testMsg, makeTokens("t", 200))
	require.NoError(t, err)
	assert.Len(t, mc.calls, 20)
	assert.Equal(t, 200, res.SuccessCount)
	assert.LessOrEqual(t, atomic.LoadInt32(&mc.maxFlight), int32(5))
	assert.Greater(t, atomic.LoadInt32(&mc.maxFlight), int32(1))
}

func TestSend_BatchFailureCountsWholeBatch(t *testing.T) {
	tokens := makeTokens("t", 25)
	mc := &fakeMulticaster{failBatch: tokens[10]}
	gw := NewPushGateway(mc, GatewayConfig{BatchSize: 10, MaxConcurrency: 2})

	res, err := gw.Send(context.Background(), testMsg, tokens)
	require.NoError(t, err)
	assert.Equal(t, 25, res.Total)
	assert.Equal(t, 15, res.SuccessCount)
	assert.Equal(t, 10, res.FailureCount)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "batch 1")
}

func TestSend_PerTokenErrorsAreCapped(t *testing.T) {
	tokens := append(makeTokens("bad", 30), makeTokens("ok", 20)...)
	mc := &fakeMulticaster{failToken: "bad"}
	gw := NewPushGateway(mc, GatewayConfig{BatchSize: 500, MaxErrors: 10})

	res, err := gw.Send(context.Background(), testMsg, tokens)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Total)
	assert.Equal(t, 20, res.SuccessCount)
	assert.Equal(t, 30, res.FailureCount)
	assert.Len(t, res.Errors, 10)
	assert.Equal(t, "token 0: unregistered", res.Errors[0])
}

func TestSend_RequiresTitleAndBody(t *testing.T) {
	mc := &fakeMulticaster{}
	gw := NewPushGateway(mc, GatewayConfig{})

	_, err := gw.Send(context.Background(), domain.Message{Body: "x"}, []string{"a"})
	assert.True(t, xerr.IsCode(err, xerr.BadRequest))
	_, err = gw.Send(context.Background(), domain.Message{Title: "x"}, []string{"a"})
	assert.True(t, xerr.IsCode(err, xerr.BadRequest))
	assert.Empty(t, mc.calls)
}

func TestSend_CanceledContextFailsRemainingBatches(t *testing.T) {
	mc := &fakeMulticaster{}
	gw := NewPushGateway(mc, GatewayConfig{BatchSize: 10})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := gw.Send(ctx, testMsg, makeTokens("t", 30))
	require.NoError(t, err)
	assert.Equal(t, 30, res.FailureCount)
	assert.Empty(t, mc.calls)
}

func TestDedupeTokens_PreservesOrder(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, DedupeTokens([]string{"b", "a", "b", " ", "c", "a"}))
}
