package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Seed(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	a, err := c.Get("1")
	require.NoError(t, err)
	assert.Equal(t, CategoryWorld, a.Category)
	assert.Equal(t, "Elena Fisher", a.Author)
	assert.Equal(t, time.Date(2024, 5, 20, 8, 30, 0, 0, time.UTC), a.PublishedAt)
	assert.Equal(t, 5, a.ReadTime)
	assert.True(t, a.Featured)
}

func TestExport_PreservesOrder(t *testing.T) {
	articles, err := Seed()
	require.NoError(t, err)

	for _, name := range []string{"catalogue.db", "catalogue.yaml", "catalogue.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Export(path, articles))

			c, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, ids(articles), ids(c.All()))

			got, err := c.Get("9")
			require.NoError(t, err)
			assert.Equal(t, CategoryHealth, got.Category)
			assert.True(t, got.Featured)
		})
	}
}

func TestExport_BoltOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.bolt")

	require.NoError(t, Export(path, []Article{
		{ID: "a", Category: CategoryWorld, ReadTime: 1},
		{ID: "b", Category: CategoryWorld, ReadTime: 1},
	}))
	require.NoError(t, Export(path, []Article{{ID: "c", Category: CategorySports, ReadTime: 2}}))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(c.All()))
}

func TestLoad_RejectsUnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	err := os.WriteFile(path, []byte(`
- id: "1"
  title: t
  category: Fofoca
  readTime: 3
`), 0o600)
	require.NoError(t, err)

	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown category "Fofoca"`)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("catalogue.txt")
	assert.EqualError(t, err, `unsupported catalogue file extension ".txt"`)

	_, err = Load(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "paragraphs and headers",
			html: "<p class=\"mb-4\">Primeiro  parágrafo.</p>\n<h3>Título</h3>\n<p>Segundo\tparágrafo.</p>",
			want: "Primeiro parágrafo. Título Segundo parágrafo.",
		},
		{
			name: "plain text",
			html: "  apenas\n texto ",
			want: "apenas texto",
		},
		{
			name: "nbsp",
			html: "<p>a\u00a0b</p>",
			want: "a b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.html))
		})
	}
}
