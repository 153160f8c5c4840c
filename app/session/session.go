// Package session keeps the state of assistant panels: the open article,
// its summary and the chat history. State lives in memory and expires
// after a period of inactivity.
package session

import (
	"errors"
	"sync"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v2"
)

// ErrBusy is returned when the session already has an outstanding request.
var ErrBusy = errors.New("session has an outstanding request")

// Role of the author of the chat turn.
type Role string

// Roles of the chat participants.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is a single message of the chat about an article.
type ChatTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session is a snapshot of the panel state.
type Session struct {
	ID        string     `json:"id"`
	ArticleID string     `json:"article_id"`
	Summary   string     `json:"summary,omitempty"`
	Turns     []ChatTurn `json:"turns"`
	InFlight  bool       `json:"in_flight"`
}

// Params defines parameters of the sessions storage.
type Params struct {
	TTL     time.Duration // inactivity period after which the session is dropped
	MaxKeys int           // maximum number of live sessions
}

// Manager keeps sessions in an expirable LRU cache.
type Manager struct {
	mu       sync.Mutex
	sessions cache.Cache[string, *Session]
}

// NewManager makes a new session manager.
func NewManager(params Params) *Manager {
	c := cache.NewCache[string, *Session]().WithLRU()
	if params.TTL > 0 {
		c = c.WithTTL(params.TTL)
	}
	if params.MaxKeys > 0 {
		c = c.WithMaxKeys(params.MaxKeys)
	}

	return &Manager{sessions: c}
}

// Open makes the article the current one for the session.
// Switching to another article discards the summary and the chat.
// Returns ErrBusy if the session has an outstanding request about
// another article, the session is left untouched then.
func (m *Manager) Open(id, articleID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.open(id, articleID)
	if err != nil {
		return Session{}, err
	}
	return s.snapshot(), nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions.Get(id)
	if !ok {
		return Session{}, false
	}
	return s.snapshot(), true
}

// Acquire opens the article in the session and marks the session as having
// an outstanding request, both in one step.
// The returned function must be called once the request is done.
// Returns ErrBusy if the session already has one, without switching the article.
func (m *Manager) Acquire(id, articleID string) (sess Session, release func(), err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.open(id, articleID)
	if err != nil {
		return Session{}, nil, err
	}

	if s.InFlight {
		return Session{}, nil, ErrBusy
	}

	s.InFlight = true

	once := sync.Once{}
	return s.snapshot(), func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			s.InFlight = false
		})
	}, nil
}

// open must be called with the mutex held.
func (m *Manager) open(id, articleID string) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		s = &Session{ID: id}
	}

	if s.ArticleID != articleID {
		if s.InFlight {
			return nil, ErrBusy
		}
		s.ArticleID = articleID
		s.Summary = ""
		s.Turns = nil
	}

	m.sessions.Set(id, s, 0)
	return s, nil
}

// SetSummary memoizes the summary of the article, if the session
// still has it open.
func (m *Manager) SetSummary(id, articleID, summary string) {
	m.update(id, articleID, func(s *Session) { s.Summary = summary })
}

// Append adds the turns to the chat of the article, if the session
// still has it open.
func (m *Manager) Append(id, articleID string, turns ...ChatTurn) {
	m.update(id, articleID, func(s *Session) { s.Turns = append(s.Turns, turns...) })
}

// Len returns the number of live sessions.
func (m *Manager) Len() int { return m.sessions.Len() }

func (m *Manager) update(id, articleID string, fn func(s *Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions.Get(id)
	if !ok || s.ArticleID != articleID {
		// torn down or switched to another article, result is not interesting
		return
	}

	fn(s)
	m.sessions.Set(id, s, 0)
}

func (s *Session) snapshot() Session {
	res := *s
	res.Turns = make([]ChatTurn, len(s.Turns))
	copy(res.Turns, s.Turns)
	return res
}
