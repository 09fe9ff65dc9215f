package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenPlainText(t *testing.T) {
	in := "  Intro   line\r\n\r\n\r\n# Heading\n- item  one  "
	assert.Equal(t, "Intro line\n\n# Heading\n- item one", Flatten(in))
}

func TestFlattenHTML(t *testing.T) {
	in := `<article><h1>Title</h1><script>alert(1)</script><p>First   para.</p><p>Second <b>bold</b> para.</p><ul><li>a</li><li>b</li></ul></article>`
	got := Flatten(in)
	assert.Equal(t, "Title\nFirst para.\nSecond bold para.\na\nb", got)
	assert.NotContains(t, got, "alert")
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("<p>x</p>"))
	assert.True(t, LooksLikeHTML("text<br/>more"))
	assert.False(t, LooksLikeHTML("a < b and c > d"))
	assert.False(t, LooksLikeHTML("plain markdown **bold**"))
}
