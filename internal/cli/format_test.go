package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raphaelgruber/ragdex/internal/client"
	"github.com/raphaelgruber/ragdex/internal/tracker"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly-ten", truncate("exactly-ten", 11))
	assert.Equal(t, "a-document-n...", truncate("a-document-name-too-long", 15))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KiB", formatSize(1536))
	assert.Equal(t, "2.0 MiB", formatSize(2<<20))
}

func TestStatusGlyph(t *testing.T) {
	assert.Equal(t, "✓", statusGlyph(tracker.StatusSuccess))
	assert.Equal(t, "✗", statusGlyph(tracker.StatusError))
	assert.Equal(t, "…", statusGlyph(tracker.StatusProcessing))
}

func TestCitationLabelPreference(t *testing.T) {
	c := client.Citation{
		Title:               "Doc title",
		URI:                 "https://x/doc",
		DocumentPath:        "documents/a",
		DocumentDisplayName: "report.pdf",
	}
	assert.Equal(t, "report.pdf", citationLabel(c))

	c.DocumentDisplayName = ""
	assert.Equal(t, "Doc title", citationLabel(c))

	c.Title = ""
	assert.Equal(t, "documents/a", citationLabel(c))

	c.DocumentPath = ""
	assert.Equal(t, "https://x/doc", citationLabel(c))
}
