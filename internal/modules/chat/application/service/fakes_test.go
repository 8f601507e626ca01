package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"MediaHub/internal/modules/chat/domain/entity"
	"MediaHub/internal/modules/chat/domain/repository"
)

type memHotStore struct {
	mu        sync.Mutex
	threads   map[string]*entity.ChatThread
	messages  map[string][]entity.HotMessage
	seq       int
	listErr   map[string]error
	summaries []entity.ThreadSummary
	now       time.Time
}

func newMemHotStore() *memHotStore {
	return &memHotStore{
		threads:  map[string]*entity.ChatThread{},
		messages: map[string][]entity.HotMessage{},
		listErr:  map[string]error{},
		now:      time.Now(),
	}
}

// seed 写入一条指定时间的消息
func (s *memHotStore) seed(artistID, userID int64, at time.Time, text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := entity.BuildChatDocId(artistID, userID)
	if s.threads[id] == nil {
		s.threads[id] = &entity.ChatThread{ChatDocId: id, ArtistId: artistID, UserId: userID}
	}
	s.seq++
	msgID := fmt.Sprintf("m%06d", s.seq)
	s.messages[id] = append(s.messages[id], entity.HotMessage{
		Id: msgID, ChatDocId: id, Text: text, SenderType: entity.SenderUser, SenderId: userID, CreatedAt: at,
	})
	return msgID
}

func (s *memHotStore) countOlderThan(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, list := range s.messages {
		for _, m := range list {
			if m.CreatedAt.Before(cutoff) {
				n++
			}
		}
	}
	return n
}

func (s *memHotStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, list := range s.messages {
		n += len(list)
	}
	return n
}

func (s *memHotStore) ListThreads(ctx context.Context) ([]entity.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.ChatThread, 0, len(s.threads))
	for _, t := range s.threads {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatDocId < out[j].ChatDocId })
	return out, nil
}

func (s *memHotStore) GetThread(ctx context.Context, chatDocID string) (*entity.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[chatDocID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *memHotStore) ListMessagesBefore(ctx context.Context, chatDocID string, cutoff time.Time, afterID string, limit int) ([]entity.HotMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.listErr[chatDocID]; err != nil {
		return nil, err
	}
	var out []entity.HotMessage
	for _, m := range s.messages[chatDocID] {
		if m.CreatedAt.Before(cutoff) && m.Id > afterID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memHotStore) DeleteMessage(ctx context.Context, chatDocID string, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.messages[chatDocID]
	for i, m := range list {
		if m.Id == messageID {
			s.messages[chatDocID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *memHotStore) AppendMessage(ctx context.Context, msg *entity.HotMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	msg.Id = fmt.Sprintf("m%06d", s.seq)
	msg.CreatedAt = s.now
	s.messages[msg.ChatDocId] = append(s.messages[msg.ChatDocId], *msg)
	return nil
}

func (s *memHotStore) UpsertThreadSummary(ctx context.Context, sum entity.ThreadSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, sum)
	t := s.threads[sum.ChatDocId]
	if t == nil {
		t = &entity.ChatThread{ChatDocId: sum.ChatDocId, ArtistId: sum.ArtistId, UserId: sum.UserId}
		s.threads[sum.ChatDocId] = t
	}
	t.LastMessage = sum.LastMessage
	if sum.LastSenderType == entity.SenderArtist {
		t.UnreadUser++
	} else {
		t.UnreadArtist++
	}
	return nil
}

func (s *memHotStore) ResetUnread(ctx context.Context, chatDocID string, party string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.threads[chatDocID]
	if t == nil {
		return nil
	}
	if party == entity.SenderArtist {
		t.UnreadArtist = 0
	} else {
		t.UnreadUser = 0
	}
	return nil
}

type memArchive struct {
	mu      sync.Mutex
	rows    []entity.ChatMessage
	keys    map[string]bool
	failFor map[string]error
}

func newMemArchive() *memArchive {
	return &memArchive{keys: map[string]bool{}, failFor: map[string]error{}}
}

func (a *memArchive) Insert(ctx context.Context, msg *entity.ChatMessage) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.failFor[msg.FirebaseMessageId]; err != nil {
		return err
	}
	key := msg.ChatDocId + "/" + msg.FirebaseMessageId
	if a.keys[key] {
		return repository.ErrAlreadyArchived
	}
	a.keys[key] = true
	msg.Id = int64(len(a.rows) + 1)
	a.rows = append(a.rows, *msg)
	return nil
}

func (a *memArchive) ListByThread(ctx context.Context, chatDocID string, beforeID int64, limit int) ([]entity.ChatMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []entity.ChatMessage
	for i := len(a.rows) - 1; i >= 0; i-- {
		r := a.rows[i]
		if r.ChatDocId == chatDocID && (beforeID <= 0 || r.Id < beforeID) {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (a *memArchive) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rows)
}

type memArtists map[int64]*entity.Artist

func (m memArtists) GetArtist(ctx context.Context, artistID int64) (*entity.Artist, error) {
	if artistID == 500 {
		return nil, errors.New("db down")
	}
	return m[artistID], nil
}
