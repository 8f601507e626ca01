package initial

import (
	"context"

	"MediaHub/internal/config"
	"MediaHub/internal/modules/push/domain"
	"MediaHub/internal/modules/push/infrastructure/fcm"
	"MediaHub/pkg/zlog"

	"go.uber.org/zap"
)

// NewMulticaster 未启用推送时返回丢弃所有消息的实现
func NewMulticaster(ctx context.Context, conf config.PushConfig) (domain.Multicaster, error) {
	if !conf.Enabled {
		zlog.Info("push gateway disabled")
		return fcm.NewDisabledMulticaster(), nil
	}
	mc, err := fcm.NewFCMMulticaster(ctx, fcm.Config{
		ProjectID:       conf.ProjectID,
		CredentialsFile: conf.CredentialsFile,
		DryRun:          conf.DryRun,
	})
	if err != nil {
		return nil, err
	}
	zlog.Info("fcm multicaster ready", zap.String("project_id", conf.ProjectID), zap.Bool("dry_run", conf.DryRun))
	return mc, nil
}
