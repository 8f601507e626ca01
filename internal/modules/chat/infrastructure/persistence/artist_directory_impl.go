package persistence

import (
	"context"
	"errors"

	"MediaHub/internal/modules/chat/domain/entity"
	"MediaHub/internal/modules/chat/domain/repository"

	"gorm.io/gorm"
)

type artistDirectoryImpl struct {
	db *gorm.DB
}

func NewArtistDirectory(db *gorm.DB) repository.ArtistDirectory {
	return &artistDirectoryImpl{db: db}
}

func (r *artistDirectoryImpl) GetArtist(ctx context.Context, artistID int64) (*entity.Artist, error) {
	var a entity.Artist
	if err := r.db.WithContext(ctx).Where("id = ?", artistID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
