package scoring

import (
	"sync"
	"time"

	"github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
)

type tweetRecord struct {
	score     float64
	createdAt time.Time
}

type demographicRecord struct {
	responses questionnaire.Responses
	updatedAt time.Time
}

// memoryStore 保存每个账号最近一次的分数与问卷，重复写入覆盖旧值。
type memoryStore struct {
	mu           sync.RWMutex
	tweets       map[string]tweetRecord
	demographics map[string]demographicRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tweets:       make(map[string]tweetRecord),
		demographics: make(map[string]demographicRecord),
	}
}

func (s *memoryStore) putTweetScore(username string, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tweets[username] = tweetRecord{score: score, createdAt: time.Now().UTC()}
}

func (s *memoryStore) tweetScore(username string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.tweets[username]
	return record.score, ok
}

func (s *memoryStore) putDemographics(username string, responses questionnaire.Responses) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.demographics[username] = demographicRecord{responses: responses.Clone(), updatedAt: time.Now().UTC()}
}

func (s *memoryStore) demographicsFor(username string) (questionnaire.Responses, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.demographics[username]
	if !ok {
		return nil, false
	}
	return record.responses.Clone(), true
}
