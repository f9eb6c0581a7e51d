package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditorError_Is(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("export: %w", NewError(KindRenderFailure, "render page 2", cause))

	assert.True(t, errors.Is(err, KindRenderFailure))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, KindRefused))
	assert.Equal(t, KindRenderFailure, KindOf(err))
	assert.Contains(t, err.Error(), "render page 2")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", KindNotFound)))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#ffff00", DefaultHighlightColor, false},
		{"ff0000", DefaultDrawingColor, false},
		{"#000", DefaultTextColor, false},
		{"#12ab3C", Color{0x12, 0xab, 0x3c}, false},
		{"#ff", Color{}, true},
		{"#gggggg", Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, KindInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "#ffff00", DefaultHighlightColor.String())
	c, err := ParseColorOr("", DefaultTextColor)
	require.NoError(t, err)
	assert.Equal(t, DefaultTextColor, c)
}

func TestParseTool(t *testing.T) {
	tool, err := ParseTool("filter", "sepia", "")
	require.NoError(t, err)
	assert.Equal(t, FilterTool(FilterSepia), tool)

	tool, err = ParseTool("", "", "")
	require.NoError(t, err)
	assert.Equal(t, NoTool(), tool)

	_, err = ParseTool("lasso", "", "")
	assert.True(t, errors.Is(err, KindInvalidInput))

	tool, err = ParseTool("highlight", "", "0F0")
	require.NoError(t, err)
	assert.Equal(t, Tool{Kind: ToolHighlight, Color: "#00ff00"}, tool)
	c, err := tool.ColorOr(DefaultHighlightColor)
	require.NoError(t, err)
	assert.Equal(t, Color{G: 0xff}, c)

	c, err = NoTool().ColorOr(DefaultDrawingColor)
	require.NoError(t, err)
	assert.Equal(t, DefaultDrawingColor, c)

	_, err = ParseTool("draw", "", "#zzzzzz")
	assert.True(t, errors.Is(err, KindInvalidInput))

	tool, err = ParseTool("move", "", "#00ff00")
	require.NoError(t, err)
	assert.Empty(t, tool.Color, "non-annotating modes carry no color")

	_, err = ParseFilterName("blur")
	assert.True(t, errors.Is(err, KindInvalidInput))

	f, err := ParseFilterName("remove")
	require.NoError(t, err)
	assert.Equal(t, FilterNone, f)
}
