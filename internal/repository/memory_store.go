package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
)

// MemoryStore keeps sessions and questions in maps keyed by auto-incrementing
// IDs. Records are copied on the way in and out.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[int]*model.QuizSession
	questions  map[int]*model.Question
	bySession  map[int][]int
	nextSessID int
	nextQID    int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[int]*model.QuizSession),
		questions:  make(map[int]*model.Question),
		bySession:  make(map[int][]int),
		nextSessID: 1,
		nextQID:    1,
	}
}

func (m *MemoryStore) CreateSession(_ context.Context, s *model.QuizSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.ID = m.nextSessID
	m.nextSessID++
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id int) (*model.QuizSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) UpdateSession(_ context.Context, id int, fn SessionMutator) (*model.QuizSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	work := stored.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	m.sessions[id] = work
	return work.Clone(), nil
}

func (m *MemoryStore) CreateQuestion(_ context.Context, q *model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[q.SessionID]; !ok {
		return ErrNotFound
	}
	q.ID = m.nextQID
	m.nextQID++
	m.questions[q.ID] = q.Clone()
	m.bySession[q.SessionID] = append(m.bySession[q.SessionID], q.ID)
	return nil
}

func (m *MemoryStore) GetQuestion(_ context.Context, id int) (*model.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return q.Clone(), nil
}

func (m *MemoryStore) ListQuestionsBySession(_ context.Context, sessionID int) ([]*model.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.bySession[sessionID]
	out := make([]*model.Question, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.questions[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].QuestionNumber != out[j].QuestionNumber {
			return out[i].QuestionNumber < out[j].QuestionNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) FindOpenQuestion(_ context.Context, sessionID, number int) (*model.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.bySession[sessionID] {
		q := m.questions[id]
		if q.QuestionNumber == number && !q.Answered() {
			return q.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) RecordAnswer(_ context.Context, questionID int, fn AnswerMutator) (*model.QuizSession, *model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	storedQ, ok := m.questions[questionID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	storedS, ok := m.sessions[storedQ.SessionID]
	if !ok {
		return nil, nil, ErrNotFound
	}

	s, q := storedS.Clone(), storedQ.Clone()
	if err := fn(s, q); err != nil {
		return nil, nil, err
	}
	m.sessions[s.ID] = s
	m.questions[q.ID] = q
	return s.Clone(), q.Clone(), nil
}
