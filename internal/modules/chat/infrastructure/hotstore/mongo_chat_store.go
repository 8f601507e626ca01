package hotstore

import (
	"context"
	"errors"
	"time"

	"MediaHub/internal/modules/chat/domain/entity"
	"MediaHub/internal/modules/chat/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type threadDoc struct {
	Id             string    `bson:"_id"`
	ArtistId       int64     `bson:"artist_id"`
	UserId         int64     `bson:"user_id"`
	ArtistName     string    `bson:"artist_name,omitempty"`
	ArtistAvatar   string    `bson:"artist_avatar,omitempty"`
	UserName       string    `bson:"user_name,omitempty"`
	UserAvatar     string    `bson:"user_avatar,omitempty"`
	LastMessage    string    `bson:"last_message,omitempty"`
	LastMessageAt  time.Time `bson:"last_message_at,omitempty"`
	LastSenderType string    `bson:"last_sender_type,omitempty"`
	UnreadArtist   int       `bson:"unread_artist"`
	UnreadUser     int       `bson:"unread_user"`
}

func (d threadDoc) toEntity() entity.ChatThread {
	return entity.ChatThread{
		ChatDocId:      d.Id,
		ArtistId:       d.ArtistId,
		UserId:         d.UserId,
		ArtistName:     d.ArtistName,
		ArtistAvatar:   d.ArtistAvatar,
		UserName:       d.UserName,
		UserAvatar:     d.UserAvatar,
		LastMessage:    d.LastMessage,
		LastMessageAt:  d.LastMessageAt,
		LastSenderType: d.LastSenderType,
		UnreadArtist:   d.UnreadArtist,
		UnreadUser:     d.UnreadUser,
	}
}

// messageDoc 会话的消息子集合，_id 为服务端生成的 ObjectID
type messageDoc struct {
	Id         primitive.ObjectID `bson:"_id"`
	ChatDocId  string             `bson:"chat_doc_id"`
	Text       string             `bson:"text"`
	SenderType string             `bson:"sender_type"`
	SenderId   int64              `bson:"sender_id"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (d messageDoc) toEntity() entity.HotMessage {
	return entity.HotMessage{
		Id:         d.Id.Hex(),
		ChatDocId:  d.ChatDocId,
		Text:       d.Text,
		SenderType: d.SenderType,
		SenderId:   d.SenderId,
		CreatedAt:  d.CreatedAt,
	}
}

type mongoChatStore struct {
	threads  *mongo.Collection
	messages *mongo.Collection
}

func NewMongoChatStore(db *mongo.Database, threadCollection, messageCollection string) repository.HotChatStore {
	return &mongoChatStore{
		threads:  db.Collection(threadCollection),
		messages: db.Collection(messageCollection),
	}
}

// EnsureIndexes 迁移按 (chat_doc_id, _id) 分页，发送后按 created_at 读取
func EnsureIndexes(ctx context.Context, db *mongo.Database, messageCollection string) error {
	_, err := db.Collection(messageCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "chat_doc_id", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "chat_doc_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	return err
}

func (s *mongoChatStore) ListThreads(ctx context.Context) ([]entity.ChatThread, error) {
	cur, err := s.threads.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []threadDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]entity.ChatThread, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntity())
	}
	return out, nil
}

func (s *mongoChatStore) GetThread(ctx context.Context, chatDocID string) (*entity.ChatThread, error) {
	var d threadDoc
	if err := s.threads.FindOne(ctx, bson.M{"_id": chatDocID}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	t := d.toEntity()
	return &t, nil
}

func (s *mongoChatStore) ListMessagesBefore(ctx context.Context, chatDocID string, cutoff time.Time, afterID string, limit int) ([]entity.HotMessage, error) {
	filter := bson.M{
		"chat_doc_id": chatDocID,
		"created_at":  bson.M{"$lt": cutoff},
	}
	if afterID != "" {
		oid, err := primitive.ObjectIDFromHex(afterID)
		if err != nil {
			return nil, err
		}
		filter["_id"] = bson.M{"$gt": oid}
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]entity.HotMessage, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntity())
	}
	return out, nil
}

func (s *mongoChatStore) DeleteMessage(ctx context.Context, chatDocID string, messageID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return false, err
	}
	res, err := s.messages.DeleteOne(ctx, bson.M{"_id": oid, "chat_doc_id": chatDocID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *mongoChatStore) AppendMessage(ctx context.Context, msg *entity.HotMessage) error {
	doc := messageDoc{
		Id:         primitive.NewObjectID(),
		ChatDocId:  msg.ChatDocId,
		Text:       msg.Text,
		SenderType: msg.SenderType,
		SenderId:   msg.SenderId,
		// BSON 时间只保留毫秒
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return err
	}
	msg.Id = doc.Id.Hex()
	msg.CreatedAt = doc.CreatedAt
	return nil
}

func (s *mongoChatStore) UpsertThreadSummary(ctx context.Context, sum entity.ThreadSummary) error {
	set := bson.M{
		"artist_id":        sum.ArtistId,
		"user_id":          sum.UserId,
		"last_message":     sum.LastMessage,
		"last_message_at":  sum.LastMessageAt,
		"last_sender_type": sum.LastSenderType,
	}
	if sum.ArtistName != "" {
		set["artist_name"] = sum.ArtistName
	}
	if sum.ArtistAvatar != "" {
		set["artist_avatar"] = sum.ArtistAvatar
	}
	if sum.UserName != "" {
		set["user_name"] = sum.UserName
	}

	unreadField := "unread_artist"
	if sum.LastSenderType == entity.SenderArtist {
		unreadField = "unread_user"
	}

	update := bson.M{
		"$set": set,
		"$inc": bson.M{unreadField: 1},
	}
	_, err := s.threads.UpdateOne(ctx, bson.M{"_id": sum.ChatDocId}, update, options.Update().SetUpsert(true))
	return err
}

func (s *mongoChatStore) ResetUnread(ctx context.Context, chatDocID string, party string) error {
	field := "unread_user"
	if party == entity.SenderArtist {
		field = "unread_artist"
	}
	_, err := s.threads.UpdateOne(ctx, bson.M{"_id": chatDocID}, bson.M{"$set": bson.M{field: 0}})
	return err
}
