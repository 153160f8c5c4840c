package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// maxRelated is the maximum number of related articles.
const maxRelated = 3

// Catalogue is an immutable in-memory collection of articles.
// It is safe for concurrent use.
type Catalogue struct {
	articles []Article
	byID     map[string]int
}

// NewCatalogue validates the articles and makes a catalogue of them.
// The order of articles is preserved.
func NewCatalogue(articles []Article) (*Catalogue, error) {
	c := &Catalogue{
		articles: make([]Article, len(articles)),
		byID:     make(map[string]int, len(articles)),
	}
	copy(c.articles, articles)

	var errs []error
	for idx, a := range c.articles {
		if err := validate(a); err != nil {
			errs = append(errs, fmt.Errorf("article #%d: %w", idx, err))
			continue
		}
		if prev, ok := c.byID[a.ID]; ok {
			errs = append(errs, fmt.Errorf("article #%d: id %q is already used by article #%d", idx, a.ID, prev))
			continue
		}
		c.byID[a.ID] = idx
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid catalogue: %w", err)
	}

	return c, nil
}

func validate(a Article) error {
	if a.ID == "" {
		return errors.New("empty id")
	}
	if _, err := ParseCategory(string(a.Category)); err != nil {
		return fmt.Errorf("article %q: %w", a.ID, err)
	}
	if a.ReadTime <= 0 {
		return fmt.Errorf("article %q: read time must be positive, got %d", a.ID, a.ReadTime)
	}
	return nil
}

// Featured returns articles marked for the hero placement.
func (c *Catalogue) Featured() []Article {
	return lo.Filter(c.articles, func(a Article, _ int) bool { return a.Featured })
}

// Latest returns articles that are not featured.
func (c *Catalogue) Latest() []Article {
	return lo.Filter(c.articles, func(a Article, _ int) bool { return !a.Featured })
}

// All returns the whole catalogue.
func (c *Catalogue) All() []Article {
	res := make([]Article, len(c.articles))
	copy(res, c.articles)
	return res
}

// Get returns the article with exactly the given id.
func (c *Catalogue) Get(id string) (Article, error) {
	idx, ok := c.byID[id]
	if !ok {
		return Article{}, fmt.Errorf("article %q: %w", id, ErrNotFound)
	}
	return c.articles[idx], nil
}

// Related returns up to three articles of the category, except the one
// with excludeID, in catalogue order.
func (c *Catalogue) Related(category Category, excludeID string) []Article {
	res := make([]Article, 0, maxRelated)
	for _, a := range c.articles {
		if len(res) == maxRelated {
			break
		}
		if a.Category == category && a.ID != excludeID {
			res = append(res, a)
		}
	}
	return res
}

// Search returns articles whose title, excerpt or category contains the query,
// ignoring case. Empty query matches everything.
func (c *Catalogue) Search(query string) []Article {
	q := strings.ToLower(query)
	return lo.Filter(c.articles, func(a Article, _ int) bool {
		return strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.Excerpt), q) ||
			strings.Contains(strings.ToLower(string(a.Category)), q)
	})
}

// Categories returns the categories of the portal.
func (c *Catalogue) Categories() []Category { return AllCategories() }
