package service

import (
	"context"

	notificationRespond "MediaHub/internal/modules/notification/application/dto/respond"
	pushDomain "MediaHub/internal/modules/push/domain"
	"MediaHub/pkg/xerr"
	"MediaHub/pkg/zlog"

	"go.uber.org/zap"
)

type BroadcastParams struct {
	Title    string
	Body     string
	Data     map[string]interface{}
	ImageUrl string
	Tokens   []string
	UserIds  []int64
}

// BroadcastService 向显式 token 列表和/或一组用户的全部 active 设备推送同一条消息
type BroadcastService interface {
	Send(ctx context.Context, p BroadcastParams) (*notificationRespond.BatchSendRespond, error)
}

type broadcastServiceImpl struct {
	tokens   TokenResolver
	sender   PushSender
	recorder *PushLogRecorder
}

func NewBroadcastService(tokens TokenResolver, sender PushSender, recorder *PushLogRecorder) BroadcastService {
	return &broadcastServiceImpl{tokens: tokens, sender: sender, recorder: recorder}
}

func (s *broadcastServiceImpl) Send(ctx context.Context, p BroadcastParams) (*notificationRespond.BatchSendRespond, error) {
	if len(p.Tokens) == 0 && len(p.UserIds) == 0 {
		return nil, xerr.New(xerr.BadRequest, "tokens 和 user_ids 至少提供一个")
	}

	tokens := append([]string(nil), p.Tokens...)
	if len(p.UserIds) > 0 {
		byUser, err := s.tokens.TokensFor(ctx, p.UserIds)
		if err != nil {
			zlog.Error("broadcast lookup tokens failed", zap.Int("users", len(p.UserIds)), zap.Error(err))
			return nil, xerr.ErrServerError
		}
		for _, uid := range p.UserIds {
			tokens = append(tokens, byUser[uid]...)
		}
	}

	msg := pushDomain.Message{
		Title:    p.Title,
		Body:     p.Body,
		Data:     pushDomain.StringifyData(p.Data),
		ImageUrl: p.ImageUrl,
	}

	var (
		res   *pushDomain.SendResult
		logID int64
		err   error
	)
	if s.recorder != nil {
		res, logID, err = s.recorder.Track(ctx, s.sender, msg, tokens)
	} else {
		res, err = s.sender.Send(ctx, msg, tokens)
	}
	if err != nil {
		return nil, err
	}
	return &notificationRespond.BatchSendRespond{
		LogId:        logID,
		SuccessCount: res.SuccessCount,
		FailureCount: res.FailureCount,
		Total:        res.Total,
		Errors:       res.Errors,
	}, nil
}
