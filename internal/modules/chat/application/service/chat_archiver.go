package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	chatRespond "MediaHub/internal/modules/chat/application/dto/respond"
	"MediaHub/internal/modules/chat/domain/entity"
	"MediaHub/internal/modules/chat/domain/repository"
	"MediaHub/pkg/xerr"
	"MediaHub/pkg/zlog"

	"go.uber.org/zap"
)

const (
	DefaultArchivePageSize = 500
	maxArchiveErrors       = 10
)

// ChatArchiver 把热存储中超过时限的消息迁移到关系库归档表。
// 每条消息先插入归档再删除热数据，插入命中唯一键说明已迁移过，仍然删除。
type ChatArchiver interface {
	Run(ctx context.Context, maxAgeHours int) (*chatRespond.ArchiveRespond, error)
}

type chatArchiverImpl struct {
	store    repository.HotChatStore
	archive  repository.ChatArchiveRepository
	pageSize int
	now      func() time.Time
}

func NewChatArchiver(store repository.HotChatStore, archive repository.ChatArchiveRepository, pageSize int) ChatArchiver {
	if pageSize <= 0 {
		pageSize = DefaultArchivePageSize
	}
	return &chatArchiverImpl{store: store, archive: archive, pageSize: pageSize, now: time.Now}
}

func (a *chatArchiverImpl) Run(ctx context.Context, maxAgeHours int) (*chatRespond.ArchiveRespond, error) {
	if maxAgeHours < 0 {
		return nil, xerr.New(xerr.BadRequest, "max_age_hours 不能为负数")
	}
	cutoff := a.now().Add(-time.Duration(maxAgeHours) * time.Hour)
	res := &chatRespond.ArchiveRespond{Cutoff: cutoff.UTC().Format(time.RFC3339)}

	threads, err := a.store.ListThreads(ctx)
	if err != nil {
		zlog.Error("archive list threads failed", zap.Error(err))
		return nil, err
	}
	res.Threads = len(threads)

	for _, t := range threads {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := a.archiveThread(ctx, t, cutoff, res); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			a.addError(res, fmt.Sprintf("thread %s: %v", t.ChatDocId, err))
			zlog.Warn("archive thread failed", zap.String("chat_doc_id", t.ChatDocId), zap.Error(err))
		}
	}

	zlog.Info("chat archive sweep finished",
		zap.String("cutoff", res.Cutoff),
		zap.Int("threads", res.Threads),
		zap.Int("moved", res.Moved),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("deleted", res.Deleted),
		zap.Int("failed", res.Failed))
	return res, nil
}

// archiveThread 只有查询热存储失败才返回错误，单条消息失败计入 res 后继续
func (a *chatArchiverImpl) archiveThread(ctx context.Context, t entity.ChatThread, cutoff time.Time, res *chatRespond.ArchiveRespond) error {
	artistID, userID := t.ArtistId, t.UserId
	if artistID <= 0 || userID <= 0 {
		var err error
		artistID, userID, err = entity.ParseChatDocId(t.ChatDocId)
		if err != nil {
			return err
		}
	}

	// 以 id 为游标翻页，失败留在热存储的消息本轮不会被重复读取
	after := ""
	for {
		msgs, err := a.store.ListMessagesBefore(ctx, t.ChatDocId, cutoff, after, a.pageSize)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			after = m.Id
			if err := ctx.Err(); err != nil {
				return err
			}
			a.migrate(ctx, artistID, userID, m, res)
		}
		if len(msgs) < a.pageSize {
			return nil
		}
	}
}

func (a *chatArchiverImpl) migrate(ctx context.Context, artistID, userID int64, m entity.HotMessage, res *chatRespond.ArchiveRespond) {
	row := &entity.ChatMessage{
		ChatDocId:         m.ChatDocId,
		ArtistId:          artistID,
		UserId:            userID,
		FirebaseMessageId: m.Id,
		Text:              m.Text,
		SenderType:        m.SenderType,
		SenderId:          m.SenderId,
		CreatedAt:         m.CreatedAt,
	}
	err := a.archive.Insert(ctx, row)
	switch {
	case err == nil:
		res.Moved++
	case errors.Is(err, repository.ErrAlreadyArchived):
		res.Moved++
		res.Duplicates++
	default:
		res.Failed++
		a.addError(res, fmt.Sprintf("message %s/%s: %v", m.ChatDocId, m.Id, err))
		zlog.Warn("archive insert failed, keep hot message",
			zap.String("chat_doc_id", m.ChatDocId), zap.String("message_id", m.Id), zap.Error(err))
		return
	}

	deleted, err := a.store.DeleteMessage(ctx, m.ChatDocId, m.Id)
	if err != nil {
		res.Failed++
		a.addError(res, fmt.Sprintf("delete %s/%s: %v", m.ChatDocId, m.Id, err))
		zlog.Warn("archive delete hot message failed",
			zap.String("chat_doc_id", m.ChatDocId), zap.String("message_id", m.Id), zap.Error(err))
		return
	}
	if deleted {
		res.Deleted++
	}
}

func (a *chatArchiverImpl) addError(res *chatRespond.ArchiveRespond, msg string) {
	if len(res.Errors) < maxArchiveErrors {
		res.Errors = append(res.Errors, msg)
	}
}
