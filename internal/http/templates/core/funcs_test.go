package core

import (
	"html/template"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "hello", TruncateText("hello", 10))
	assert.Equal(t, "hel…", TruncateText("hello", 4))
	assert.Equal(t, "h", TruncateText("hello", 1))
	assert.Equal(t, "hello", TruncateText("hello", "x"))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1 item", FormatCount(1, "item"))
	assert.Equal(t, "3 items", FormatCount(3, "item"))
}

func TestFriendlyTime(t *testing.T) {
	assert.Empty(t, friendlyTime(time.Time{}))
	assert.Empty(t, friendlyTime("nope"))
	assert.NotEmpty(t, friendlyTime(time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)))
}

func TestRenderSection(t *testing.T) {
	var tmpl *template.Template
	funcs := Funcs(Deps{Template: &tmpl, ContentTemplateFor: func(p string) string { return p + "-content" }})
	tmpl = template.Must(template.New("root").Funcs(funcs).Parse(
		`{{define "home-content"}}<p>{{.}}</p>{{end}}{{define "layout"}}{{renderSection "home" "<x>"}}{{end}}`))

	var out []byte
	buf := &sliceWriter{b: &out}
	require.NoError(t, tmpl.ExecuteTemplate(buf, "layout", nil))
	assert.Equal(t, "<p>&lt;x&gt;</p>", string(out))
}

type sliceWriter struct{ b *[]byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	*w.b = append(*w.b, p...)
	return len(p), nil
}
