package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName = "Calibri"
	fontSize = 11
)

// Exporter serializes structured minutes blocks into a .docx document
type Exporter struct {
	logger *slog.Logger
}

// New creates a new Exporter instance
func New(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Export parses the markdown minutes and writes the document to outputPath,
// creating the destination directory if absent. Returns the final path.
func (e *Exporter) Export(minutesMarkdown, outputPath string) (string, error) {
	blocks := ParseMinutes(minutesMarkdown)
	if len(blocks) == 0 {
		return "", fmt.Errorf("minutes document produced no content blocks")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	if err := writeDocx(blocks, outputPath); err != nil {
		return "", err
	}

	e.logger.Info("Minutes document written",
		slog.String("path", outputPath),
		slog.Int("blocks", len(blocks)),
	)

	return outputPath, nil
}

// writeDocx serializes blocks in order; never re-orders them
func writeDocx(blocks []Block, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	for _, block := range blocks {
		p := doc.AddParagraph("")
		switch block.Type {
		case BlockHeading:
			addRun(p, block.Text, true, headingSize(block.Level))
		case BlockBullet:
			addRun(p, block.Text, false, fontSize)
		default:
			addRun(p, block.Text, false, fontSize)
		}
	}

	if err := doc.SaveTo(outputPath); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	return nil
}

func headingSize(level int) uint64 {
	switch level {
	case 1:
		return 16
	case 2:
		return 14
	case 3:
		return 12
	default:
		return fontSize
	}
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
