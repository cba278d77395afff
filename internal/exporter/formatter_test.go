package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     []Block
	}{
		{
			name: "typical minutes document",
			markdown: "# Weekly Sync\n" +
				"\n" +
				"## Decisions\n" +
				"\n" +
				"- Ship the beta on Friday\n" +
				"- Defer the billing rework\n" +
				"\n" +
				"The team agreed on the rollout plan.\n",
			want: []Block{
				{Type: BlockHeading, Level: 1, Text: "Weekly Sync"},
				{Type: BlockHeading, Level: 2, Text: "Decisions"},
				{Type: BlockBullet, Text: "- Ship the beta on Friday"},
				{Type: BlockBullet, Text: "- Defer the billing rework"},
				{Type: BlockParagraph, Text: "The team agreed on the rollout plan."},
			},
		},
		{
			name:     "heading levels one through three",
			markdown: "# Title\n## Section\n### Sub",
			want: []Block{
				{Type: BlockHeading, Level: 1, Text: "Title"},
				{Type: BlockHeading, Level: 2, Text: "Section"},
				{Type: BlockHeading, Level: 3, Text: "Sub"},
			},
		},
		{
			name:     "deeper heading markers fall back to paragraph",
			markdown: "#### Too deep",
			want: []Block{
				{Type: BlockParagraph, Text: "#### Too deep"},
			},
		},
		{
			name:     "asterisk bullets normalize to dash",
			markdown: "* first\n* second",
			want: []Block{
				{Type: BlockBullet, Text: "- first"},
				{Type: BlockBullet, Text: "- second"},
			},
		},
		{
			name:     "inline markers are stripped",
			markdown: "## **Action Items**\n- call `ops` about __rollout__",
			want: []Block{
				{Type: BlockHeading, Level: 2, Text: "Action Items"},
				{Type: BlockBullet, Text: "- call ops about rollout"},
			},
		},
		{
			name:     "blank lines and rules produce no blocks",
			markdown: "\n\n---\n\n",
			want:     nil,
		},
		{
			name:     "empty document",
			markdown: "",
			want:     nil,
		},
		{
			name:     "bullet list interrupted by paragraph",
			markdown: "- one\nplain text\n- two",
			want: []Block{
				{Type: BlockBullet, Text: "- one"},
				{Type: BlockParagraph, Text: "plain text"},
				{Type: BlockBullet, Text: "- two"},
			},
		},
		{
			name:     "surrounding whitespace is trimmed",
			markdown: "   # Padded Title   \n   some text   ",
			want: []Block{
				{Type: BlockHeading, Level: 1, Text: "Padded Title"},
				{Type: BlockParagraph, Text: "some text"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMinutes(tt.markdown)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMinutesPreservesOrder(t *testing.T) {
	markdown := "# A\npara one\n- b1\n- b2\n## C\npara two"
	blocks := ParseMinutes(markdown)

	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.Text
	}

	assert.Equal(t, []string{"A", "para one", "- b1", "- b2", "C", "para two"}, texts)
}

func TestNormalize(t *testing.T) {
	tagged := normalize("# H\n- item\n\ntext")

	assert.Equal(t, []string{
		"<h1>H</h1>",
		"<ul>",
		"<li>item</li>",
		"</ul>",
		"<p>text</p>",
	}, tagged)
}
