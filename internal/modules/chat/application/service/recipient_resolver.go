package service

import (
	"context"

	"MediaHub/internal/modules/chat/domain/entity"
	"MediaHub/internal/modules/chat/domain/repository"
	notificationService "MediaHub/internal/modules/notification/application/service"
)

// recipientResolver 艺人发出的消息通知会话中的用户，用户发出的消息通知艺人所属账号
type recipientResolver struct {
	artists repository.ArtistDirectory
}

func NewRecipientResolver(artists repository.ArtistDirectory) notificationService.RecipientResolver {
	return &recipientResolver{artists: artists}
}

func (r *recipientResolver) ResolveRecipient(ctx context.Context, chatDocID string, senderIsArtist bool) (int64, error) {
	artistID, userID, err := entity.ParseChatDocId(chatDocID)
	if err != nil {
		return 0, notificationService.ErrRecipientNotFound
	}
	if senderIsArtist {
		return userID, nil
	}

	artist, err := r.artists.GetArtist(ctx, artistID)
	if err != nil {
		return 0, err
	}
	if artist == nil || artist.UserId <= 0 {
		return 0, notificationService.ErrRecipientNotFound
	}
	return artist.UserId, nil
}
