// Package portal composes the pages of the news portal out of the catalogue:
// the home page, the static pages and the reader forms.
package portal

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Semior001/newsportal/app/store"
	"github.com/samber/lo"
)

const (
	tickerSize   = 5
	trendingSize = 5
	recentSize   = 3
)

// Params defines parameters of the portal.
type Params struct {
	ContactDelay time.Duration // simulated processing time of the contact form
}

// Portal builds pages of the news portal.
type Portal struct {
	log    *slog.Logger
	store  store.Interface
	params Params
}

// NewPortal makes a new portal.
func NewPortal(lg *slog.Logger, s store.Interface, params Params) *Portal {
	return &Portal{log: lg, store: s, params: params}
}

// Home is the home page. Without a query it shows the ticker, the hero
// with featured articles and the latest ones, with a query only the results.
type Home struct {
	Query    string          `json:"query,omitempty"`
	Ticker   []string        `json:"ticker,omitempty"`
	Featured []store.Article `json:"featured,omitempty"`
	Latest   []store.Article `json:"latest,omitempty"`
	Results  []store.Article `json:"results"`
	Sidebar  Sidebar         `json:"sidebar"`
}

// Sidebar is the side column of the home page.
type Sidebar struct {
	Trending   []store.Article  `json:"trending"`
	Recent     []store.Article  `json:"recent"`
	Categories []store.Category `json:"categories"`
}

// Home returns the home page for the query.
func (p *Portal) Home(query string) Home {
	res := Home{Sidebar: p.Sidebar()}

	if query = strings.TrimSpace(query); query != "" {
		res.Query = query
		res.Results = p.store.Search(query)
		return res
	}

	res.Featured = p.store.Featured()
	res.Latest = p.store.Latest()
	res.Ticker = p.Ticker()
	return res
}

// Ticker returns the breaking-news headlines.
func (p *Portal) Ticker() []string {
	return lo.Map(first(p.store.All(), tickerSize), func(a store.Article, _ int) string { return a.Title })
}

// Sidebar returns the side column.
func (p *Portal) Sidebar() Sidebar {
	return Sidebar{
		Trending:   p.Trending(),
		Recent:     first(p.store.Latest(), recentSize),
		Categories: p.store.Categories(),
	}
}

// Trending returns the articles that are read the most.
func (p *Portal) Trending() []store.Article { return first(p.store.All(), trendingSize) }

func first(articles []store.Article, n int) []store.Article {
	if len(articles) > n {
		return articles[:n]
	}
	return articles
}
