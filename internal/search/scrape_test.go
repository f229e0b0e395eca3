package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPageFixture = `<html><head><script>var config = {};</script></head>
<body>
<script nonce="x">var ytInitialData = {"contents":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[
{"videoRenderer":{"videoId":"abc12345678","thumbnail":{"thumbnails":[]},"title":{"runs":[{"text":"Night Drive & Chill"}]}}},
{"videoRenderer":{"videoId":"def12345678","thumbnail":{"thumbnails":[]},"title":{"runs":[{"text":"Daybreak"}]}}},
{"videoRenderer":{"videoId":"abc12345678","thumbnail":{"thumbnails":[]},"title":{"runs":[{"text":"Night Drive & Chill"}]}}}
]}}]}}};</script>
</body></html>`

func TestParseSearchPage(t *testing.T) {
	sources, err := parseSearchPage([]byte(searchPageFixture), 10)

	require.NoError(t, err)
	require.Len(t, sources, 2, "duplicate IDs should be dropped")

	assert.Equal(t, "abc12345678", sources[0].ID)
	assert.Equal(t, "Night Drive & Chill", sources[0].Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc12345678", sources[0].URL)

	assert.Equal(t, "def12345678", sources[1].ID)
	assert.Equal(t, "Daybreak", sources[1].Title)
}

func TestParseSearchPageCapsAtCount(t *testing.T) {
	sources, err := parseSearchPage([]byte(searchPageFixture), 1)

	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestParseSearchPageWithoutInitialData(t *testing.T) {
	_, err := parseSearchPage([]byte("<html><body><p>nothing here</p></body></html>"), 5)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no initial data")
}

func TestParseSearchPageWithoutResults(t *testing.T) {
	page := `<html><body><script>var ytInitialData = {"contents":{}};</script></body></html>`

	_, err := parseSearchPage([]byte(page), 5)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no results")
}
