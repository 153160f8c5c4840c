package bot

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Semior001/newsportal/app/portal"
	"github.com/Semior001/newsportal/app/session"
	"github.com/Semior001/newsportal/app/store"
)

const helpText = `*MediaGB*
Notícias com um assistente de IA.

/latest - últimas notícias
/featured - destaques
/trending - em alta agora
/categories - categorias
/article <número> - abrir artigo
/summary - resumo do artigo aberto
/ask <pergunta> - perguntar sobre o artigo aberto
/history - conversa sobre o artigo aberto
/search <termo> - buscar artigos
/about - sobre nós
/contact - contato
/subscribe <e-mail> - newsletter

Sem comando, a mensagem é uma pergunta sobre o artigo aberto ou uma busca.`

const notFoundText = "Artigo não encontrado."

var articleTmpl = template.Must(template.New("article").Parse(`*{{.Title}}*
_{{.Category}} · {{.Author}} · {{.PublishedAt.Format "02/01/2006"}} · {{.ReadTime}} min_

{{.Excerpt}}

{{.Content}}

` + "`/summary`" + ` resumo IA · ` + "`/ask <pergunta>`" + ` perguntar
`))

// telegram rejects messages longer than 4096 characters
const maxContentRunes = 3000

func renderArticle(a store.Article) string {
	a.Content = truncate(a.Text(), maxContentRunes)
	a = escapeArticle(a)

	sb := &strings.Builder{}
	if err := articleTmpl.Execute(sb, a); err != nil {
		// fields are plain strings, execution never fails
		return a.Title
	}
	return sb.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

func renderList(title string, articles []store.Article) string {
	sb := &strings.Builder{}
	_, _ = fmt.Fprintf(sb, "*%s*\n\n", escapeMarkdown(title))
	for _, a := range articles {
		_, _ = fmt.Fprintf(sb, "`/article %s` %s _(%s, %d min)_\n",
			a.ID, escapeMarkdown(a.Title), a.Category, a.ReadTime)
	}
	return sb.String()
}

func renderChat(turns []session.ChatTurn) string {
	sb := &strings.Builder{}
	for _, t := range turns {
		who := "Você"
		if t.Role == session.RoleAssistant {
			who = "Assistente"
		}
		_, _ = fmt.Fprintf(sb, "*%s:* %s\n\n", who, escapeMarkdown(t.Text))
	}
	return strings.TrimSpace(sb.String())
}

func renderPage(p portal.Page) string {
	sb := &strings.Builder{}
	_, _ = fmt.Fprintf(sb, "*%s*\n\n%s\n", escapeMarkdown(p.Title), escapeMarkdown(p.Lead))

	if len(p.Stats) > 0 {
		_, _ = sb.WriteString("\n")
		for _, s := range p.Stats {
			_, _ = fmt.Fprintf(sb, "*%s* %s\n", escapeMarkdown(s.Value), escapeMarkdown(s.Label))
		}
	}

	for _, s := range p.Sections {
		_, _ = fmt.Fprintf(sb, "\n*%s*\n%s\n", escapeMarkdown(s.Title), escapeMarkdown(s.Text))
	}

	for _, ch := range p.Channels {
		_, _ = fmt.Fprintf(sb, "\n*%s* (%s)\n%s\n",
			escapeMarkdown(ch.Name), escapeMarkdown(ch.Details), escapeMarkdown(ch.Value))
	}

	return sb.String()
}

var mdEscaper = strings.NewReplacer(
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	"[", "\\[",
)

func escapeArticle(a store.Article) store.Article {
	a.Title = escapeMarkdown(a.Title)
	a.Author = escapeMarkdown(a.Author)
	a.Excerpt = escapeMarkdown(a.Excerpt)
	a.Content = escapeMarkdown(a.Content)
	return a
}

func escapeMarkdown(s string) string {
	return mdEscaper.Replace(s)
}
