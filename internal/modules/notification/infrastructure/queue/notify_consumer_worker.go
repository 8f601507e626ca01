package queue

import (
	"context"
	"errors"

	"MediaHub/internal/modules/notification/application/service"
	"MediaHub/internal/modules/notification/infrastructure/mq"
	"MediaHub/pkg/util"
	"MediaHub/pkg/zlog"

	"go.uber.org/zap"
)

// NotifyConsumerWorker 消费 notify topic 并交给 dispatcher 同步派发
type NotifyConsumerWorker struct {
	consumer   mq.Consumer
	dispatcher service.Notifier
}

func NewNotifyConsumerWorker(consumer mq.Consumer, dispatcher service.Notifier) *NotifyConsumerWorker {
	return &NotifyConsumerWorker{consumer: consumer, dispatcher: dispatcher}
}

func (w *NotifyConsumerWorker) Run(ctx context.Context) error {
	if w == nil || w.consumer == nil {
		return errors.New("consumer is nil")
	}
	if w.dispatcher == nil {
		return errors.New("dispatcher is nil")
	}
	return w.consumer.Run(ctx, w)
}

// Handle 无法解析或不可重试的事件直接提交，只有临时性错误才返回 error
func (w *NotifyConsumerWorker) Handle(ctx context.Context, msg mq.Message) error {
	var ev service.NotifyEvent
	if err := util.UnmarshalJSON(msg.Value, &ev); err != nil {
		zlog.Warn("notify consumer invalid payload", zap.String("topic", msg.Topic), zap.Error(err))
		return nil
	}

	res, err := w.dispatcher.Notify(ctx, ev)
	if err != nil {
		if service.IsPermanent(err) {
			zlog.Warn("notify consumer drop event",
				zap.String("type", ev.Kind), zap.Int64("recipient", ev.RecipientUserId),
				zap.String("chat_doc_id", ev.ChatDocId), zap.Error(err))
			return nil
		}
		return err
	}

	zlog.Debug("notify consumer dispatched",
		zap.Int64("recipient", res.RecipientUserId),
		zap.Bool("sent", res.Sent),
		zap.String("reason", res.Reason),
		zap.Int("success", res.SuccessCount),
		zap.Int("failure", res.FailureCount))
	return nil
}
