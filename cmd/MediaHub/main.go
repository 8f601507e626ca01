package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	https_server "MediaHub/api/http"
	"MediaHub/internal/config"
	"MediaHub/internal/initial"
	"MediaHub/internal/modules/chat/interface/scheduler"
	"MediaHub/internal/modules/notification/infrastructure/mq"
	"MediaHub/internal/modules/notification/infrastructure/mq/kafka"
	"MediaHub/internal/modules/notification/infrastructure/queue"
	"MediaHub/pkg/zlog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	root := &cobra.Command{
		Use:           "MediaHub",
		Short:         "notification fan-out and chat archival service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "config file path (default $MEDIAHUB_CONFIG or configs/config_local.toml)")

	if err := root.Execute(); err != nil {
		zlog.Error("MediaHub exited", zap.Error(err))
		_ = zlog.Sync()
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. 加载配置
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	config.SetConfig(conf)
	zlog.Init(conf.LogConfig)
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. 外部连接
	infra, err := initial.Setup(ctx, conf, initial.SetupOptions{Migrate: true, WithPush: true})
	if err != nil {
		return err
	}
	defer infra.Close()

	srv, err := https_server.NewServer(conf, infra)
	if err != nil {
		return err
	}
	defer srv.Close()

	// 3. 定时归档
	var archiveScheduler *scheduler.ArchiveScheduler
	if conf.ArchiveConfig.Enabled {
		archiveScheduler = scheduler.NewArchiveScheduler(srv.Archiver, conf.ArchiveConfig.Cron, conf.ArchiveConfig.MaxAgeHours)
		if err := archiveScheduler.Start(); err != nil {
			return err
		}
	}

	// 4. kafka 通知消费
	consumer, err := startNotifyConsumer(ctx, conf, srv)
	if err != nil {
		return err
	}

	// 5. 启动 HTTP 服务
	addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("服务器正在启动", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 6. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err = <-serveErr:
		zlog.Error("服务器启动失败", zap.Error(err))
	}

	zlog.Info("正在关闭服务器...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("http shutdown failed", zap.Error(err))
	}
	if archiveScheduler != nil {
		archiveScheduler.Stop()
	}
	if consumer != nil {
		_ = consumer.Close()
	}
	zlog.Info("服务器已关闭")
	return err
}

// startNotifyConsumer 未配置 broker 时返回 nil
func startNotifyConsumer(ctx context.Context, conf *config.Config, srv *https_server.Server) (mq.Consumer, error) {
	kc := conf.KafkaConfig
	if len(kc.Brokers) == 0 || kc.NotifyTopic == "" {
		return nil, nil
	}
	if err := kafka.EnsureTopic(
		kafka.TopicAdminConfig{Brokers: kc.Brokers, ClientID: kc.ClientID},
		kafka.TopicSpec{Name: kc.NotifyTopic, Partitions: kc.Partitions, ReplicationFactor: kc.Replication, Retention: 72 * time.Hour},
	); err != nil {
		zlog.Warn("ensure notify topic failed", zap.String("topic", kc.NotifyTopic), zap.Error(err))
	}

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:  kc.Brokers,
		GroupID:  kc.ConsumerGroupID,
		Topics:   []string{kc.NotifyTopic},
		ClientID: kc.ClientID,
	})
	if err != nil {
		return nil, fmt.Errorf("create notify consumer: %w", err)
	}

	worker := queue.NewNotifyConsumerWorker(consumer, srv.Dispatcher)
	go func() {
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			zlog.Error("notify consumer stopped", zap.Error(err))
		}
	}()
	zlog.Info("notify consumer started", zap.String("topic", kc.NotifyTopic), zap.String("group", kc.ConsumerGroupID))
	return consumer, nil
}
