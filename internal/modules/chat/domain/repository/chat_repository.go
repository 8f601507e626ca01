package repository

import (
	"context"
	"errors"
	"time"

	"MediaHub/internal/modules/chat/domain/entity"
)

// ErrAlreadyArchived 归档唯一键冲突，说明该消息已被之前或并发的迁移写入
var ErrAlreadyArchived = errors.New("chat message already archived")

// HotChatStore 低延迟的实时会话存储
type HotChatStore interface {
	ListThreads(ctx context.Context) ([]entity.ChatThread, error)
	// GetThread 不存在时返回 nil, nil
	GetThread(ctx context.Context, chatDocID string) (*entity.ChatThread, error)

	// ListMessagesBefore 按 id 升序返回 created_at < cutoff 且 id > afterID 的消息
	ListMessagesBefore(ctx context.Context, chatDocID string, cutoff time.Time, afterID string, limit int) ([]entity.HotMessage, error)
	DeleteMessage(ctx context.Context, chatDocID string, messageID string) (bool, error)

	// AppendMessage 写入并回填 Id、CreatedAt
	AppendMessage(ctx context.Context, msg *entity.HotMessage) error
	// UpsertThreadSummary 同时把对方的未读计数加一
	UpsertThreadSummary(ctx context.Context, s entity.ThreadSummary) error
	ResetUnread(ctx context.Context, chatDocID string, party string) error
}

type ChatArchiveRepository interface {
	// Insert 唯一键冲突时返回 ErrAlreadyArchived
	Insert(ctx context.Context, msg *entity.ChatMessage) error
	// ListByThread beforeID<=0 时从最新一条开始，按 id 倒序
	ListByThread(ctx context.Context, chatDocID string, beforeID int64, limit int) ([]entity.ChatMessage, error)
}

type ArtistDirectory interface {
	// GetArtist 不存在时返回 nil, nil
	GetArtist(ctx context.Context, artistID int64) (*entity.Artist, error)
}
