package store

import (
	"strings"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalogue(t *testing.T) *Catalogue {
	t.Helper()
	c, err := Load("")
	require.NoError(t, err)
	return c
}

func ids(articles []Article) []string {
	return lo.Map(articles, func(a Article, _ int) string { return a.ID })
}

func TestCatalogue_Get(t *testing.T) {
	c := seedCatalogue(t)

	for _, a := range c.All() {
		got, err := c.Get(a.ID)
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}

	_, err := c.Get("nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)

	// lookup is exact and case-sensitive
	_, err = c.Get(" 1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogue_FeaturedAndLatest(t *testing.T) {
	c := seedCatalogue(t)

	featured, latest := c.Featured(), c.Latest()
	assert.Equal(t, []string{"1", "2", "9"}, ids(featured))
	assert.Len(t, latest, 13)

	assert.Empty(t, lo.Intersect(ids(featured), ids(latest)))
	assert.ElementsMatch(t, ids(c.All()), append(ids(featured), ids(latest)...))

	for _, a := range latest {
		assert.False(t, a.Featured)
	}
}

func TestCatalogue_AllIsACopy(t *testing.T) {
	c := seedCatalogue(t)

	all := c.All()
	require.Len(t, all, 16)
	all[0].Title = "changed"

	a, err := c.Get(all[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", a.Title)
}

func TestCatalogue_Related(t *testing.T) {
	c := seedCatalogue(t)

	t.Run("excludes the current article", func(t *testing.T) {
		res := c.Related(CategoryTechnology, "2")
		assert.Equal(t, []string{"4", "7"}, ids(res))
	})

	t.Run("only the given category, at most three", func(t *testing.T) {
		for _, cat := range AllCategories() {
			for _, a := range c.All() {
				res := c.Related(cat, a.ID)
				assert.LessOrEqual(t, len(res), 3)
				for _, r := range res {
					assert.Equal(t, cat, r.Category)
					assert.NotEqual(t, a.ID, r.ID)
				}
			}
		}
	})

	t.Run("world article has no siblings", func(t *testing.T) {
		assert.Empty(t, c.Related(CategoryWorld, "1"))
	})

	t.Run("limited to three", func(t *testing.T) {
		articles := make([]Article, 0, 5)
		for _, id := range []string{"a", "b", "c", "d", "e"} {
			articles = append(articles, Article{ID: id, Category: CategoryWorld, ReadTime: 1})
		}
		cc, err := NewCatalogue(articles)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "d"}, ids(cc.Related(CategoryWorld, "a")))
	})
}

func TestCatalogue_Search(t *testing.T) {
	c := seedCatalogue(t)

	t.Run("empty query matches everything", func(t *testing.T) {
		assert.Equal(t, ids(c.All()), ids(c.Search("")))
	})

	t.Run("category match, case-insensitive", func(t *testing.T) {
		assert.Equal(t, []string{"2", "4", "7"}, ids(c.Search("tecnologia")))
		assert.Equal(t, []string{"2", "4", "7"}, ids(c.Search("TECNOLOGIA")))
	})

	t.Run("accented category", func(t *testing.T) {
		assert.Equal(t, []string{"9", "15"}, ids(c.Search("saúde")))
	})

	t.Run("only matching articles", func(t *testing.T) {
		for _, q := range []string{"copa", "q-core", "mercado", "zzz"} {
			res := c.Search(q)
			for _, a := range res {
				match := strings.Contains(strings.ToLower(a.Title), q) ||
					strings.Contains(strings.ToLower(a.Excerpt), q) ||
					strings.Contains(strings.ToLower(string(a.Category)), q)
				assert.True(t, match, "article %s does not match %q", a.ID, q)
			}
		}
		assert.Empty(t, c.Search("zzz"))
	})
}

func TestCatalogue_ConcurrentReads(t *testing.T) {
	c := seedCatalogue(t)

	wg := &sync.WaitGroup{}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Search("a")
			_ = c.Related(CategorySports, "5")
			_, _ = c.Get("3")
		}()
	}
	wg.Wait()
}

func TestNewCatalogue_Validation(t *testing.T) {
	tests := []struct {
		name     string
		articles []Article
		wantErr  string
	}{
		{
			name:     "unknown category",
			articles: []Article{{ID: "1", Category: "Fofoca", ReadTime: 1}},
			wantErr:  `unknown category "Fofoca"`,
		},
		{
			name: "duplicate id",
			articles: []Article{
				{ID: "1", Category: CategoryWorld, ReadTime: 1},
				{ID: "1", Category: CategoryHealth, ReadTime: 1},
			},
			wantErr: `id "1" is already used by article #0`,
		},
		{
			name:     "empty id",
			articles: []Article{{Category: CategoryWorld, ReadTime: 1}},
			wantErr:  "empty id",
		},
		{
			name:     "non-positive read time",
			articles: []Article{{ID: "1", Category: CategoryWorld}},
			wantErr:  "read time must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalogue(tt.articles)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Política")
	require.NoError(t, err)
	assert.Equal(t, CategoryPolitics, c)

	_, err = ParseCategory("politica")
	assert.Error(t, err)
}
