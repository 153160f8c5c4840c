// Package store contains entities of the portal and the read-only catalogue
// of articles.
package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is an error that is returned when the requested entity is not found.
var ErrNotFound = errors.New("not found")

// Interface defines read-only queries over the catalogue.
type Interface interface {
	Featured() []Article
	Latest() []Article
	All() []Article
	Get(id string) (Article, error)
	Related(category Category, excludeID string) []Article
	Search(query string) []Article
	Categories() []Category
}

// Category is a section of the portal an article belongs to.
type Category string

// Categories of the portal, values are the display names.
const (
	CategoryWorld         Category = "Mundo"
	CategoryPolitics      Category = "Política"
	CategoryBusiness      Category = "Negócios"
	CategoryTechnology    Category = "Tecnologia"
	CategoryScience       Category = "Ciência"
	CategoryHealth        Category = "Saúde"
	CategorySports        Category = "Esportes"
	CategoryEntertainment Category = "Entretenimento"
)

var categories = []Category{
	CategoryWorld,
	CategoryPolitics,
	CategoryBusiness,
	CategoryTechnology,
	CategoryScience,
	CategoryHealth,
	CategorySports,
	CategoryEntertainment,
}

// AllCategories returns every known category in navigation order.
func AllCategories() []Category {
	res := make([]Category, len(categories))
	copy(res, categories)
	return res
}

// ParseCategory returns the category with the given display name.
func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// String returns the display name of the category.
func (c Category) String() string { return string(c) }

// UnmarshalText rejects values outside of the known set.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) { return []byte(c), nil }

// Article is a single news item of the catalogue.
type Article struct {
	ID          string    `json:"id"          yaml:"id"`
	Title       string    `json:"title"       yaml:"title"`
	Excerpt     string    `json:"excerpt"     yaml:"excerpt"`
	Content     string    `json:"content"     yaml:"content"`
	Category    Category  `json:"category"    yaml:"category"`
	Author      string    `json:"author"      yaml:"author"`
	PublishedAt time.Time `json:"publishedAt" yaml:"publishedAt"`
	ImageURL    string    `json:"imageUrl"    yaml:"imageUrl"`
	ReadTime    int       `json:"readTime"    yaml:"readTime"`
	Featured    bool      `json:"featured"    yaml:"featured,omitempty"`
}

// Text returns the content of the article without markup.
func (a Article) Text() string { return PlainText(a.Content) }
