// Package bot contains routers and controllers for bots.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Semior001/newsportal/app/assistant"
	"github.com/Semior001/newsportal/app/portal"
	"github.com/Semior001/newsportal/app/session"
	"github.com/Semior001/newsportal/app/store"
	"github.com/Semior001/newsportal/pkg/botx"
	"github.com/Semior001/newsportal/pkg/botx/botmw"
	"github.com/samber/lo"
)

// Ctrl provides routes and controllers for bot updates.
// The chat id is used as the id of the assistant session.
type Ctrl struct {
	Logger         *slog.Logger
	Store          store.Interface
	Portal         *portal.Portal
	Assistant      *assistant.Service
	API            botx.API
	HandlerTimeout time.Duration
}

// Routes returns a multiplexer for bot controllers.
func (c *Ctrl) Routes() *botx.Router {
	rtr := botx.NewRouter()

	rtr.Use(
		botmw.RequestID(),
		botmw.AppendRequestIDOnError(),
		botmw.Recover(c.Logger),
		botmw.Logger(c.Logger),
		botmw.Timeout(c.HandlerTimeout),
	)

	rtr.NotFound(c.text)
	rtr.Add("/start", c.start)
	rtr.Add("/help", c.help)
	rtr.Add("/latest", c.latest)
	rtr.Add("/featured", c.featured)
	rtr.Add("/trending", c.trending)
	rtr.Add("/categories", c.categories)
	rtr.Add("/category", c.category)
	rtr.Add("/article", c.article)
	rtr.Add("/search", c.search)
	rtr.Add("/about", c.about)
	rtr.Add("/contact", c.contact)
	rtr.Add("/subscribe", c.subscribe)

	rtr.Group(func(rtr *botx.Router) {
		rtr.Use(c.ensureArticleOpen)

		rtr.Add("/summary", c.summary)
		rtr.Add("/ask", c.ask)
		rtr.Add("/history", c.history)
	})

	return rtr
}

func (c *Ctrl) start(_ context.Context, req botx.Request) ([]botx.Response, error) {
	return []botx.Response{
		reply(req, helpText),
		reply(req, renderList("Destaques", c.Store.Featured())),
	}, nil
}

func (c *Ctrl) help(_ context.Context, req botx.Request) ([]botx.Response, error) {
	return []botx.Response{reply(req, helpText)}, nil
}

func (c *Ctrl) latest(_ context.Context, req botx.Request) ([]botx.Response, error) {
	return []botx.Response{reply(req, renderList("Últimas Notícias", c.Store.Latest()))}, nil
}

func (c *Ctrl) featured(_ context.Context, req botx.Request) ([]botx.Response, error) {
	return []botx.Response{reply(req, renderList("Destaques", c.Store.Featured()))}, nil
}

func (c *Ctrl) trending(_ context.Context, req botx.Request) ([]botx.Response, error) {
	return []botx.Response{reply(req, renderList("Em Alta Agora", c.Portal.Trending()))}, nil
}

func (c *Ctrl) categories(_ context.Context, req botx.Request) ([]botx.Response, error) {
	sb := &strings.Builder{}
	_, _ = sb.WriteString("*Categorias*\n\n")
	for _, cat := range c.Store.Categories() {
		_, _ = fmt.Fprintf(sb, "`/category %s`\n", cat)
	}
	return []botx.Response{reply(req, sb.String())}, nil
}

func (c *Ctrl) category(_ context.Context, req botx.Request) ([]botx.Response, error) {
	name := req.Args()
	cat, ok := lo.Find(c.Store.Categories(), func(cat store.Category) bool {
		return strings.EqualFold(string(cat), name)
	})
	if !ok {
		return []botx.Response{reply(req, fmt.Sprintf(
			"Categoria desconhecida: %s\nVeja /categories.", escapeMarkdown(name)))}, nil
	}

	articles := lo.Filter(c.Store.All(), func(a store.Article, _ int) bool { return a.Category == cat })
	return []botx.Response{reply(req, renderList(string(cat), articles))}, nil
}

func (c *Ctrl) article(_ context.Context, req botx.Request) ([]botx.Response, error) {
	id := req.Args()
	if id == "" {
		return []botx.Response{reply(req, "Informe o número do artigo, por exemplo: `/article 1`")}, nil
	}

	article, err := c.Assistant.Open(req.Chat.ID, id)
	if err != nil {
		return c.assistantError(req, fmt.Errorf("open article %s: %w", id, err))
	}

	resps := []botx.Response{reply(req, renderArticle(article))}
	if related := c.Store.Related(article.Category, article.ID); len(related) > 0 {
		resps = append(resps, reply(req, renderList("Artigos Relacionados", related)))
	}

	return resps, nil
}

func (c *Ctrl) summary(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	articleID, _ := articleFromContext(ctx)

	c.notifyWorking(ctx, req)

	summary, err := c.Assistant.Summary(ctx, req.Chat.ID, articleID)
	if err != nil {
		return c.assistantError(req, fmt.Errorf("summarize article %s: %w", articleID, err))
	}

	return []botx.Response{reply(req, "*Resumo IA*\n\n"+escapeMarkdown(summary))}, nil
}

func (c *Ctrl) ask(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	articleID, _ := articleFromContext(ctx)
	return c.answer(ctx, req, articleID, req.Args())
}

func (c *Ctrl) history(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	articleID, _ := articleFromContext(ctx)

	turns := c.Assistant.History(req.Chat.ID, articleID)
	if len(turns) == 0 {
		return []botx.Response{reply(req, "Ainda não há perguntas sobre este artigo. Use `/ask <pergunta>`.")}, nil
	}

	return []botx.Response{reply(req, renderChat(turns))}, nil
}

// text handles messages without a known command: a question about
// the open article or a search when no article is open.
func (c *Ctrl) text(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	if req.Command() != "" {
		return []botx.Response{reply(req, "Comando desconhecido. Veja /help.")}, nil
	}

	if articleID, ok := c.Assistant.CurrentArticle(req.Chat.ID); ok {
		return c.answer(ctx, req, articleID, req.Args())
	}

	return c.searchFor(req, req.Args())
}

func (c *Ctrl) search(_ context.Context, req botx.Request) ([]botx.Response, error) {
	return c.searchFor(req, req.Args())
}

func (c *Ctrl) searchFor(req botx.Request, query string) ([]botx.Response, error) {
	if query == "" {
		return []botx.Response{reply(req, "Informe o termo da busca, por exemplo: `/search tecnologia`")}, nil
	}

	results := c.Store.Search(query)
	if len(results) == 0 {
		return []botx.Response{reply(req, "Nenhum artigo encontrado.")}, nil
	}

	return []botx.Response{reply(req, renderList(fmt.Sprintf("Resultados para: %q", query), results))}, nil
}

func (c *Ctrl) about(_ context.Context, req botx.Request) ([]botx.Response, error) {
	return []botx.Response{reply(req, renderPage(c.Portal.About()))}, nil
}

func (c *Ctrl) contact(_ context.Context, req botx.Request) ([]botx.Response, error) {
	return []botx.Response{reply(req, renderPage(c.Portal.Contact()))}, nil
}

func (c *Ctrl) subscribe(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	ack, err := c.Portal.Subscribe(ctx, req.Args())
	if err != nil {
		if errors.Is(err, portal.ErrInvalidForm) {
			return []botx.Response{reply(req, "Informe um e-mail válido, por exemplo: `/subscribe seu@email.com`")}, nil
		}
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	return []botx.Response{reply(req, escapeMarkdown(ack))}, nil
}

func (c *Ctrl) answer(ctx context.Context, req botx.Request, articleID, question string) ([]botx.Response, error) {
	if strings.TrimSpace(question) == "" {
		return []botx.Response{reply(req, "Faça uma pergunta sobre o artigo, por exemplo: `/ask O que aconteceu?`")}, nil
	}

	c.notifyWorking(ctx, req)

	answer, _, err := c.Assistant.Ask(ctx, req.Chat.ID, articleID, question)
	if err != nil {
		return c.assistantError(req, fmt.Errorf("answer question about article %s: %w", articleID, err))
	}

	return []botx.Response{reply(req, escapeMarkdown(answer))}, nil
}

func (c *Ctrl) assistantError(req botx.Request, err error) ([]botx.Response, error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		return []botx.Response{reply(req, "Ainda estou trabalhando na resposta anterior, aguarde.")}, nil
	case errors.Is(err, store.ErrNotFound):
		return []botx.Response{reply(req, notFoundText)}, nil
	default:
		return nil, err
	}
}

func (c *Ctrl) notifyWorking(ctx context.Context, req botx.Request) {
	if c.API == nil {
		return
	}
	if err := c.API.SendMessage(ctx, botx.Response{ChatID: req.Chat.ID, Text: "Pensando..."}); err != nil {
		c.Logger.WarnContext(ctx, "failed to send progress message", slog.Any("err", err))
	}
}

type articleKey struct{}

func articleFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(articleKey{}).(string)
	return id, ok
}

// ensureArticleOpen passes the open article to the handler in the context.
func (c *Ctrl) ensureArticleOpen(h botx.Handler) botx.Handler {
	return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
		articleID, ok := c.Assistant.CurrentArticle(req.Chat.ID)
		if !ok {
			return []botx.Response{reply(req, "Abra um artigo primeiro, por exemplo: `/article 1`")}, nil
		}

		return h(context.WithValue(ctx, articleKey{}, articleID), req)
	}
}

func reply(req botx.Request, text string) botx.Response {
	return botx.Response{ChatID: req.Chat.ID, Text: text}
}
