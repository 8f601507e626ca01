package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"MediaHub/internal/modules/notification/infrastructure/mq"
	"MediaHub/pkg/zlog"

	"go.uber.org/zap"
)

// queuedNotifier 把事件写入 notify topic，由消费者异步调用真正的 dispatcher
type queuedNotifier struct {
	pub   mq.Publisher
	topic string
}

func NewQueuedNotifier(pub mq.Publisher, topic string) Notifier {
	return &queuedNotifier{pub: pub, topic: strings.TrimSpace(topic)}
}

func (q *queuedNotifier) Notify(ctx context.Context, ev NotifyEvent) (*NotifyResult, error) {
	ev.ChatDocId = strings.TrimSpace(ev.ChatDocId)
	if err := ev.validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}

	// 同一收件人/会话的事件落在同一分区，保持先后顺序
	key := ev.ChatDocId
	if ev.RecipientUserId > 0 {
		key = strconv.FormatInt(ev.RecipientUserId, 10)
	}

	res, err := q.pub.Publish(ctx, mq.Message{
		Topic:   q.topic,
		Key:     []byte(key),
		Value:   payload,
		Headers: map[string]string{"type": ev.Kind},
	})
	if err != nil {
		zlog.Warn("publish notify event failed", zap.String("topic", q.topic), zap.String("key", key), zap.Error(err))
		return nil, err
	}
	zlog.Debug("notify event queued", zap.String("key", key), zap.Int32("partition", res.Partition), zap.Int64("offset", res.Offset))
	return &NotifyResult{RecipientUserId: ev.RecipientUserId, Queued: true}, nil
}
