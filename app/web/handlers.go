package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Semior001/newsportal/app/assistant"
	"github.com/Semior001/newsportal/app/portal"
	"github.com/Semior001/newsportal/app/session"
	"github.com/Semior001/newsportal/app/store"
	"github.com/gin-gonic/gin"
)

// Filters of the article list.
const (
	FilterAll      = "all"
	FilterFeatured = "featured"
	FilterLatest   = "latest"
)

type errorResponse struct {
	Error string `json:"error"`
}

type articleResponse struct {
	Article store.Article   `json:"article"`
	Related []store.Article `json:"related"`
}

type summaryResponse struct {
	ArticleID string `json:"article_id"`
	Summary   string `json:"summary"`
	Fallback  bool   `json:"fallback"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	ArticleID string             `json:"article_id"`
	Answer    string             `json:"answer"`
	Turns     []session.ChatTurn `json:"turns"`
}

type subscribeRequest struct {
	Email string `json:"email"`
}

type ackResponse struct {
	Message string `json:"message"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.Version})
}

func (s *Server) home(c *gin.Context) {
	c.JSON(http.StatusOK, s.Portal.Home(c.Query("q")))
}

func (s *Server) search(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.Search(c.Query("q")))
}

func (s *Server) categories(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.Categories())
}

func (s *Server) listArticles(c *gin.Context) {
	switch filter := c.DefaultQuery("filter", FilterAll); filter {
	case FilterAll:
		c.JSON(http.StatusOK, s.Store.All())
	case FilterFeatured:
		c.JSON(http.StatusOK, s.Store.Featured())
	case FilterLatest:
		c.JSON(http.StatusOK, s.Store.Latest())
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown filter %q", filter)})
	}
}

func (s *Server) getArticle(c *gin.Context) {
	article, err := s.Store.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, articleResponse{
		Article: article,
		Related: s.Store.Related(article.Category, article.ID),
	})
}

func (s *Server) relatedArticles(c *gin.Context) {
	article, err := s.Store.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, s.Store.Related(article.Category, article.ID))
}

func (s *Server) summary(c *gin.Context) {
	articleID := c.Param("id")

	summary, err := s.Assistant.Summary(c.Request.Context(), sessionID(c), articleID)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, summaryResponse{
		ArticleID: articleID,
		Summary:   summary,
		Fallback:  assistant.IsFallback(summary),
	})
}

func (s *Server) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	articleID := c.Param("id")

	answer, turns, err := s.Assistant.Ask(c.Request.Context(), sessionID(c), articleID, req.Question)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, askResponse{
		ArticleID: articleID,
		Answer:    answer,
		Turns:     turns,
	})
}

func (s *Server) chat(c *gin.Context) {
	panel, err := s.Assistant.Panel(sessionID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, panel)
}

func (s *Server) aboutPage(c *gin.Context) {
	c.JSON(http.StatusOK, s.Portal.About())
}

func (s *Server) contactPage(c *gin.Context) {
	c.JSON(http.StatusOK, s.Portal.Contact())
}

func (s *Server) submitContact(c *gin.Context) {
	var form portal.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		s.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	ack, err := s.Portal.SubmitContact(c.Request.Context(), form)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ackResponse{Message: ack})
}

func (s *Server) subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	ack, err := s.Portal.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ackResponse{Message: ack})
}

var errBadRequest = errors.New("bad request")

// Messages of the errors shown to the client.
const (
	msgNotFound      = "Artigo não encontrado."
	msgBusy          = "O assistente ainda está respondendo. Aguarde."
	msgEmptyQuestion = "A pergunta não pode ser vazia."
	msgInternal      = "Erro interno. Tente novamente mais tarde."
)

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: msgNotFound})
	case errors.Is(err, session.ErrBusy):
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Error: msgBusy})
	case errors.Is(err, assistant.ErrEmptyQuestion):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msgEmptyQuestion})
	case errors.Is(err, portal.ErrInvalidForm), errors.Is(err, errBadRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorResponse{Error: msgInternal})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: msgInternal})
	}
}
