package cmd

import (
	"fmt"
	"log/slog"

	"github.com/Semior001/newsportal/app/store"
)

// Export is a command to write the catalogue into a file of another format.
type Export struct {
	CommonOpts

	Catalogue string `long:"catalogue" env:"CATALOGUE" description:"source catalogue file, built-in articles if empty"`
	Out       string `long:"out" short:"o" required:"true" description:"destination file (.json, .yaml, .db)"`
}

// Execute runs the command.
func (e *Export) Execute(_ []string) error {
	catalogue, err := store.Load(e.Catalogue)
	if err != nil {
		return fmt.Errorf("load catalogue: %w", err)
	}

	articles := catalogue.All()
	if err = store.Export(e.Out, articles); err != nil {
		return fmt.Errorf("export catalogue to %s: %w", e.Out, err)
	}

	slog.Info("catalogue exported", slog.String("path", e.Out), slog.Int("articles", len(articles)))
	return nil
}
