package exporter

import (
	"regexp"
	"strings"
)

// BlockType classifies one output block of the minutes document
type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockBullet    BlockType = "bullet"
)

// Block is one typed element of the structured minutes document.
// Level is only meaningful for heading blocks (1-3).
type Block struct {
	Type  BlockType
	Level int
	Text  string
}

var (
	reHeading = regexp.MustCompile(`^(#{1,3})\s+(.+)$`)
	reBullet  = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reTag     = regexp.MustCompile(`^<(/?)([a-z0-9]+)>(.*?)(?:</[a-z0-9]+>)?$`)
)

// ParseMinutes converts a markdown minutes document into an ordered block
// sequence. The markdown is first normalized into a tagged-line form, then
// each tagged line is classified on its own; there is no look-ahead, so
// unterminated multi-line constructs are not specially handled.
func ParseMinutes(markdown string) []Block {
	var blocks []Block
	for _, tagged := range normalize(markdown) {
		if block, ok := classify(tagged); ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// normalize converts markdown lines into a tagged-line representation:
// <h1>..</h1> for headings, <li>..</li> for list items wrapped in
// <ul>/</ul> container tags, <p>..</p> for everything else. Blank lines
// produce no tagged line.
func normalize(markdown string) []string {
	var (
		tagged []string
		inList bool
	)

	closeList := func() {
		if inList {
			tagged = append(tagged, "</ul>")
			inList = false
		}
	}

	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimSpace(raw)

		if line == "" || line == "---" {
			closeList()
			continue
		}

		if m := reHeading.FindStringSubmatch(line); m != nil {
			closeList()
			level := len(m[1])
			tag := "h" + string(rune('0'+level))
			tagged = append(tagged, "<"+tag+">"+strings.TrimSpace(m[2])+"</"+tag+">")
			continue
		}

		if m := reBullet.FindStringSubmatch(line); m != nil {
			if !inList {
				tagged = append(tagged, "<ul>")
				inList = true
			}
			tagged = append(tagged, "<li>"+strings.TrimSpace(m[1])+"</li>")
			continue
		}

		closeList()
		tagged = append(tagged, "<p>"+line+"</p>")
	}

	closeList()
	return tagged
}

// classify maps one tagged line to an output block. Container tags and
// tag-only lines yield no block.
func classify(tagged string) (Block, bool) {
	m := reTag.FindStringSubmatch(tagged)
	if m == nil {
		// Untagged content line, keep as plain paragraph
		if text := cleanInline(tagged); text != "" {
			return Block{Type: BlockParagraph, Text: text}, true
		}
		return Block{}, false
	}

	closing := m[1] == "/"
	tag := m[2]
	text := cleanInline(strings.TrimSpace(m[3]))

	switch {
	case closing, tag == "ul", tag == "ol":
		return Block{}, false
	case tag == "h1" || tag == "h2" || tag == "h3":
		if text == "" {
			return Block{}, false
		}
		return Block{Type: BlockHeading, Level: int(tag[1] - '0'), Text: text}, true
	case tag == "li":
		if text == "" {
			return Block{}, false
		}
		return Block{Type: BlockBullet, Text: "- " + text}, true
	default:
		if text == "" {
			return Block{}, false
		}
		return Block{Type: BlockParagraph, Text: text}, true
	}
}

// cleanInline strips inline markdown wrapper characters from block text
func cleanInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return strings.TrimSpace(s)
}
