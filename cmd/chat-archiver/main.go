package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"MediaHub/internal/config"
	"MediaHub/internal/initial"
	"MediaHub/internal/modules/chat/application/service"
	"MediaHub/internal/modules/chat/infrastructure/hotstore"
	"MediaHub/internal/modules/chat/infrastructure/persistence"
	"MediaHub/pkg/zlog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		maxAgeHours int
		pageSize    int
	)
	cmd := &cobra.Command{
		Use:          "chat-archiver",
		Short:        "move chat messages older than max-age from the hot store into MySQL",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			config.SetConfig(conf)
			zlog.Init(conf.LogConfig)
			defer func() { _ = zlog.Sync() }()

			if !cmd.Flags().Changed("max-age-hours") {
				maxAgeHours = conf.ArchiveConfig.MaxAgeHours
			}
			if !cmd.Flags().Changed("page-size") {
				pageSize = conf.ArchiveConfig.PageSize
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return archiveOnce(ctx, conf, maxAgeHours, pageSize, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().IntVar(&maxAgeHours, "max-age-hours", 24, "archive messages older than this many hours")
	cmd.Flags().IntVar(&pageSize, "page-size", 500, "messages read per query")
	return cmd
}

func archiveOnce(ctx context.Context, conf *config.Config, maxAgeHours, pageSize int, out io.Writer) error {
	infra, err := initial.Setup(ctx, conf, initial.SetupOptions{Migrate: true})
	if err != nil {
		return err
	}
	defer infra.Close()

	store := hotstore.NewMongoChatStore(infra.Mongo, conf.MongoConfig.ThreadCollection, conf.MongoConfig.MessageCollection)
	archiver := service.NewChatArchiver(store, persistence.NewChatArchiveRepository(infra.DB), pageSize)

	res, err := archiver.Run(ctx, maxAgeHours)
	if res != nil {
		zlog.Info("chat archive finished",
			zap.Int("threads", res.Threads),
			zap.Int("moved", res.Moved),
			zap.Int("duplicates", res.Duplicates),
			zap.Int("deleted", res.Deleted),
			zap.Int("failed", res.Failed))
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
	}
	return err
}
