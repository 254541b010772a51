package ingest

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractMainText_PrefersMainContentRegion(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<nav><p>navigation noise</p></nav>
		<div role="main"><h1>Layers</h1><p>Maps consist of layers.</p></div>
	</body></html>`)

	text := extractMainText(doc)

	assert.Equal(t, "Layers\n\nMaps consist of layers.", text)
	assert.NotContains(t, text, "navigation noise")
}

func TestExtractMainText_FallsBackToBody(t *testing.T) {
	doc := parseHTML(t, `<html><body><p>plain page</p></body></html>`)

	assert.Equal(t, "plain page", extractMainText(doc))
}

func TestExtractMainText_NestedBlocksEmittedOnce(t *testing.T) {
	doc := parseHTML(t, `<html><body><div role="main">
		<ul>
			<li><p>Stamp Brush</p></li>
			<li>Terrain Brush
				<ul><li>Fills corners</li></ul>
			</li>
			<li><pre>tile-id: 42</pre></li>
		</ul>
	</div></body></html>`)

	text := extractMainText(doc)

	// A paragraph, sub-list item or code block inside an li must only
	// appear through its enclosing li.
	assert.Equal(t, 1, strings.Count(text, "Stamp Brush"))
	assert.Equal(t, 1, strings.Count(text, "Fills corners"))
	assert.Equal(t, 1, strings.Count(text, "tile-id: 42"))
}

func TestExtractMainText_KeepsDocumentOrder(t *testing.T) {
	doc := parseHTML(t, `<html><body><main>
		<h2>Tilesets</h2>
		<p>First paragraph.</p>
		<pre>code sample</pre>
		<p>Second paragraph.</p>
	</main></body></html>`)

	text := extractMainText(doc)

	parts := strings.Split(text, "\n\n")
	require.Len(t, parts, 4)
	assert.Equal(t, []string{"Tilesets", "First paragraph.", "code sample", "Second paragraph."}, parts)
}
