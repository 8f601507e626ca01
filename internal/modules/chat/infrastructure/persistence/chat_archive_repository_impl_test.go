package persistence

import (
	"context"
	"testing"
	"time"

	"MediaHub/internal/modules/chat/domain/entity"
	"MediaHub/internal/modules/chat/domain/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&entity.ChatMessage{}, &entity.Artist{}))
	return db
}

func TestChatArchiveRepository_DuplicateIsReported(t *testing.T) {
	ctx := context.Background()
	repo := NewChatArchiveRepository(setupTestDB(t))

	msg := func() *entity.ChatMessage {
		return &entity.ChatMessage{
			ChatDocId: "3_7", ArtistId: 3, UserId: 7, FirebaseMessageId: "652f0c",
			Text: "hi", SenderType: entity.SenderUser, SenderId: 7, CreatedAt: time.Now(),
		}
	}
	require.NoError(t, repo.Insert(ctx, msg()))
	assert.ErrorIs(t, repo.Insert(ctx, msg()), repository.ErrAlreadyArchived)

	// 相同消息 id 不同会话不冲突
	other := msg()
	other.ChatDocId = "3_8"
	require.NoError(t, repo.Insert(ctx, other))

	list, err := repo.ListByThread(ctx, "3_7", 0, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestArtistDirectory_GetArtist(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	require.NoError(t, db.Create(&entity.Artist{Id: 3, UserId: 30, Name: "Aurora"}).Error)
	dir := NewArtistDirectory(db)

	a, err := dir.GetArtist(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, int64(30), a.UserId)

	a, err = dir.GetArtist(ctx, 4)
	require.NoError(t, err)
	assert.Nil(t, a)
}
