package fcm

import (
	"context"
	"errors"
	"strings"

	"MediaHub/internal/modules/push/domain"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// MaxTokensPerMulticast FCM 单次 multicast 的 token 上限
const MaxTokensPerMulticast = domain.MaxMulticastTokens

type Config struct {
	ProjectID       string
	CredentialsFile string
	DryRun          bool
}

type fcmMulticaster struct {
	client *messaging.Client
	dryRun bool
}

func NewFCMMulticaster(ctx context.Context, cfg Config) (domain.Multicaster, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var fbCfg *firebase.Config
	if strings.TrimSpace(cfg.ProjectID) != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &fcmMulticaster{client: client, dryRun: cfg.DryRun}, nil
}

func (m *fcmMulticaster) SendMulticast(ctx context.Context, msg domain.Message, tokens []string) (*domain.BatchResponse, error) {
	if len(tokens) == 0 {
		return &domain.BatchResponse{}, nil
	}
	if len(tokens) > MaxTokensPerMulticast {
		return nil, errors.New("fcm multicast token count exceeds limit")
	}

	mm := &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   msg.Data,
		Notification: &messaging.Notification{
			Title:    msg.Title,
			Body:     msg.Body,
			ImageURL: msg.ImageUrl,
		},
		Android: &messaging.AndroidConfig{Priority: "high"},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
		},
	}

	var (
		br  *messaging.BatchResponse
		err error
	)
	if m.dryRun {
		br, err = m.client.SendEachForMulticastDryRun(ctx, mm)
	} else {
		br, err = m.client.SendEachForMulticast(ctx, mm)
	}
	if err != nil {
		return nil, err
	}

	out := &domain.BatchResponse{Responses: make([]domain.TokenResponse, 0, len(br.Responses))}
	for _, r := range br.Responses {
		if r == nil {
			out.Responses = append(out.Responses, domain.TokenResponse{Error: errors.New("empty response")})
			continue
		}
		out.Responses = append(out.Responses, domain.TokenResponse{
			Success:   r.Success,
			MessageId: r.MessageID,
			Error:     r.Error,
		})
	}
	return out, nil
}

type disabledMulticaster struct{}

// NewDisabledMulticaster 未配置推送凭据时使用：所有 token 记为失败，不发起网络请求
func NewDisabledMulticaster() domain.Multicaster {
	return disabledMulticaster{}
}

var errPushDisabled = errors.New("push gateway disabled")

func (disabledMulticaster) SendMulticast(ctx context.Context, msg domain.Message, tokens []string) (*domain.BatchResponse, error) {
	return nil, errPushDisabled
}
