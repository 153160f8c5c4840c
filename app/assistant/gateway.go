package assistant

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/sashabaranov/go-openai"
)

//go:embed data/summary.tmpl
var summaryPrompt string

//go:embed data/answer.tmpl
var answerPrompt string

var (
	summaryTmpl = template.Must(template.New("summary").Parse(summaryPrompt))
	answerTmpl  = template.Must(template.New("answer").Parse(answerPrompt))
)

// Texts returned instead of the provider's answer.
const (
	SummaryFallback    = "Não foi possível gerar o resumo no momento. Tente novamente mais tarde."
	SummaryUnavailable = "Resumo indisponível."
	AnswerFallback     = "Desculpe, estou com problemas de conexão agora."
	AnswerUnavailable  = "Não consegui encontrar uma resposta para isso."
)

// Defaults of the provider.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel   = "gemini-2.5-flash"
)

// Intent is a kind of request to the provider.
type Intent string

// Supported intents.
const (
	IntentSummary Intent = "summary"
	IntentAnswer  Intent = "answer"
)

var errEmptyResponse = errors.New("empty response")

//go:generate moq -out mock_openai_client.go . OpenAIClient

// OpenAIClient is interface for OpenAI-compatible client with the possibility to mock it
type OpenAIClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Params defines parameters of the provider.
type Params struct {
	Token     string
	BaseURL   string
	Model     string
	MaxTokens int
}

// Gateway forwards prompts to the generative-language provider.
// Its methods never fail, errors are logged and replaced with fixed texts.
type Gateway struct {
	log       *slog.Logger
	cl        OpenAIClient
	model     string
	maxTokens int
	metrics   *Metrics
}

// NewGateway creates a new Gateway that talks to an OpenAI-compatible endpoint.
func NewGateway(lg *slog.Logger, cl *http.Client, params Params, metrics *Metrics) *Gateway {
	config := openai.DefaultConfig(params.Token)
	config.HTTPClient = cl
	if params.BaseURL != "" {
		config.BaseURL = strings.TrimRight(params.BaseURL, "/")
	}

	if params.Model == "" {
		params.Model = DefaultModel
	}

	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Gateway{
		log:       lg,
		cl:        &loggingClient{log: lg, cl: openai.NewClientWithConfig(config)},
		model:     params.Model,
		maxTokens: params.MaxTokens,
		metrics:   metrics,
	}
}

// Summarize asks the provider for a three-point summary of the article.
func (g *Gateway) Summarize(ctx context.Context, articleText string) string {
	text, err := g.complete(ctx, IntentSummary, summaryTmpl, struct{ Text string }{Text: articleText})
	switch {
	case errors.Is(err, errEmptyResponse):
		g.log.WarnContext(ctx, "provider returned no summary", slog.Any("err", err))
		return SummaryUnavailable
	case err != nil:
		g.log.WarnContext(ctx, "failed to summarize article", slog.Any("err", err))
		return SummaryFallback
	}
	return text
}

// Answer asks the provider to answer the question about the article.
func (g *Gateway) Answer(ctx context.Context, question, articleContext string) string {
	text, err := g.complete(ctx, IntentAnswer, answerTmpl, struct{ Question, Context string }{
		Question: question,
		Context:  articleContext,
	})
	switch {
	case errors.Is(err, errEmptyResponse):
		g.log.WarnContext(ctx, "provider returned no answer", slog.Any("err", err))
		return AnswerUnavailable
	case err != nil:
		g.log.WarnContext(ctx, "failed to answer question", slog.Any("err", err))
		return AnswerFallback
	}
	return text
}

// IsFallback reports whether the text is one of the texts returned
// instead of the provider's answer.
func IsFallback(text string) bool {
	switch text {
	case SummaryFallback, SummaryUnavailable, AnswerFallback, AnswerUnavailable:
		return true
	}
	return false
}

func (g *Gateway) complete(ctx context.Context, intent Intent, tmpl *template.Template, data any) (text string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in provider call: %v", r)
		}
		g.metrics.observe(intent, err, time.Since(start))
	}()

	buf := &strings.Builder{}
	if err = tmpl.Execute(buf, data); err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buf.String()},
		},
	}

	resp, err := g.cl.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

type loggingClient struct {
	log *slog.Logger
	cl  OpenAIClient
}

func (l *loggingClient) CreateChatCompletion(
	ctx context.Context,
	req openai.ChatCompletionRequest,
) (openai.ChatCompletionResponse, error) {
	l.log.DebugContext(ctx, "sending request to provider", slog.String("model", req.Model))
	resp, err := l.cl.CreateChatCompletion(ctx, req)
	l.log.DebugContext(ctx, "response received from provider", slog.Any("err", err))
	return resp, err
}
