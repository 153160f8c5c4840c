package store

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/articles.json
var seed []byte

// Format is a format of a catalogue file.
type Format string

// Supported catalogue formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatBolt Format = "bolt"
)

// FormatOf detects the format of the catalogue file by its extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".bolt":
		return FormatBolt, nil
	default:
		return "", fmt.Errorf("unsupported catalogue file extension %q", ext)
	}
}

// Seed returns the built-in articles of the portal.
func Seed() ([]Article, error) {
	var articles []Article
	if err := json.Unmarshal(seed, &articles); err != nil {
		return nil, fmt.Errorf("unmarshal seed: %w", err)
	}
	return articles, nil
}

// Load reads articles from the catalogue file and makes a catalogue of them.
// Empty path loads the built-in articles.
func Load(path string) (*Catalogue, error) {
	articles, err := read(path)
	if err != nil {
		return nil, err
	}

	c, err := NewCatalogue(articles)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", describe(path), err)
	}

	return c, nil
}

func read(path string) ([]Article, error) {
	if path == "" {
		return Seed()
	}

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	if format == FormatBolt {
		articles, err := readBolt(path)
		if err != nil {
			return nil, fmt.Errorf("read bolt catalogue %s: %w", path, err)
		}
		return articles, nil
	}

	bts, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue file: %w", err)
	}

	var articles []Article
	switch format {
	case FormatJSON:
		err = json.Unmarshal(bts, &articles)
	case FormatYAML:
		err = yaml.Unmarshal(bts, &articles)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s catalogue %s: %w", format, path, err)
	}

	return articles, nil
}

// Export writes the articles to the file, format is detected by the extension.
func Export(path string, articles []Article) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	var bts []byte
	switch format {
	case FormatBolt:
		if err = writeBolt(path, articles); err != nil {
			return fmt.Errorf("write bolt catalogue: %w", err)
		}
		return nil
	case FormatJSON:
		bts, err = json.MarshalIndent(articles, "", "  ")
	case FormatYAML:
		bts, err = yaml.Marshal(articles)
	}
	if err != nil {
		return fmt.Errorf("marshal %s catalogue: %w", format, err)
	}

	if err = os.WriteFile(path, bts, 0o600); err != nil {
		return fmt.Errorf("write catalogue file: %w", err)
	}

	return nil
}

func describe(path string) string {
	if path == "" {
		return "built-in catalogue"
	}
	return path
}
