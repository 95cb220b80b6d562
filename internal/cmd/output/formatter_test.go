package output

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

type rendered struct{}

func (rendered) Render(w io.Writer) error {
	_, err := io.WriteString(w, "custom layout\n")
	return err
}

// TestNewFormatter selects the formatter for each format.
func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(FormatYAML))
	assert.IsType(t, &TableFormatter{}, NewFormatter(FormatTable))
	assert.IsType(t, &TableFormatter{}, NewFormatter(""))
}

// TestFormatters encodes the same value in every format.
func TestFormatters(t *testing.T) {
	data := summary{Name: "published", Count: 3}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, data))
	assert.JSONEq(t, `{"name":"published","count":3}`, buf.String())

	buf.Reset()
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, data))
	assert.Equal(t, "name: published\ncount: 3\n", buf.String())

	buf.Reset()
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, rendered{}))
	assert.Equal(t, "custom layout\n", buf.String())

	buf.Reset()
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, data))
	assert.JSONEq(t, `{"name":"published","count":3}`, buf.String(), "table falls back to JSON")
}

// TestParseFormat validates format names.
func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)

	assert.Equal(t, FormatJSON, DetectFormat("json"))
}
