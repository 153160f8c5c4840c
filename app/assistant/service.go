// Package assistant contains the AI assistant of the article page:
// a gateway to the generative-language provider and the panel service
// that keeps summaries and chats per session.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Semior001/newsportal/app/session"
	"github.com/Semior001/newsportal/app/store"
)

// ErrEmptyQuestion is returned when the question has no text.
var ErrEmptyQuestion = errors.New("empty question")

// Service is the assistant panel of the article page.
type Service struct {
	log      *slog.Logger
	store    store.Interface
	sessions *session.Manager
	gateway  *Gateway
}

// NewService creates new service.
func NewService(lg *slog.Logger, s store.Interface, sessions *session.Manager, gateway *Gateway) *Service {
	return &Service{
		log:      lg,
		store:    s,
		sessions: sessions,
		gateway:  gateway,
	}
}

// Summary returns the summary of the article. The summary is requested once
// per open article, fallback texts are not kept, so the next call asks again.
func (s *Service) Summary(ctx context.Context, sessionID, articleID string) (string, error) {
	article, err := s.store.Get(articleID)
	if err != nil {
		return "", fmt.Errorf("get article: %w", err)
	}

	if sess, ok := s.sessions.Get(sessionID); ok && sess.ArticleID == articleID && sess.Summary != "" {
		return sess.Summary, nil
	}

	sess, release, err := s.sessions.Acquire(sessionID, articleID)
	if err != nil {
		return "", fmt.Errorf("acquire session %s: %w", sessionID, err)
	}
	defer release()

	if sess.Summary != "" {
		return sess.Summary, nil
	}

	s.log.DebugContext(ctx, "summarizing article", slog.String("article_id", articleID))

	summary := s.gateway.Summarize(ctx, article.Text())
	if !IsFallback(summary) {
		s.sessions.SetSummary(sessionID, articleID, summary)
	}

	return summary, nil
}

// Ask answers the question about the article. Returns the answer and
// the whole chat, the chat is empty if the session was dropped meanwhile.
func (s *Service) Ask(ctx context.Context, sessionID, articleID, question string) (answer string, turns []session.ChatTurn, err error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, ErrEmptyQuestion
	}

	article, err := s.store.Get(articleID)
	if err != nil {
		return "", nil, fmt.Errorf("get article: %w", err)
	}

	_, release, err := s.sessions.Acquire(sessionID, articleID)
	if err != nil {
		return "", nil, fmt.Errorf("acquire session %s: %w", sessionID, err)
	}
	defer release()

	s.sessions.Append(sessionID, articleID, session.ChatTurn{Role: session.RoleUser, Text: question})

	answer = s.gateway.Answer(ctx, question, article.Text())
	s.sessions.Append(sessionID, articleID, session.ChatTurn{Role: session.RoleAssistant, Text: answer})

	return answer, s.History(sessionID, articleID), nil
}

// History returns the chat of the session about the article.
func (s *Service) History(sessionID, articleID string) []session.ChatTurn {
	sess, ok := s.sessions.Get(sessionID)
	if !ok || sess.ArticleID != articleID {
		return []session.ChatTurn{}
	}
	return sess.Turns
}

// Panel returns the state of the session's panel for the article.
func (s *Service) Panel(sessionID, articleID string) (session.Session, error) {
	if _, err := s.store.Get(articleID); err != nil {
		return session.Session{}, fmt.Errorf("get article: %w", err)
	}

	sess, ok := s.sessions.Get(sessionID)
	if !ok || sess.ArticleID != articleID {
		return session.Session{ID: sessionID, ArticleID: articleID, Turns: []session.ChatTurn{}}, nil
	}
	return sess, nil
}

// CurrentArticle returns the id of the article open in the session.
func (s *Service) CurrentArticle(sessionID string) (string, bool) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok || sess.ArticleID == "" {
		return "", false
	}
	return sess.ArticleID, true
}

// Open makes the article the current one for the session.
// Returns session.ErrBusy while a request about another article is outstanding.
func (s *Service) Open(sessionID, articleID string) (store.Article, error) {
	article, err := s.store.Get(articleID)
	if err != nil {
		return store.Article{}, fmt.Errorf("get article: %w", err)
	}
	if _, err = s.sessions.Open(sessionID, articleID); err != nil {
		return store.Article{}, fmt.Errorf("open article in session %s: %w", sessionID, err)
	}
	return article, nil
}
