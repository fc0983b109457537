package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "reactive error",
			code:    "R001",
			wantMsg: "Stale handle",
			wantCat: CategoryReactive,
		},
		{
			name:    "ui error",
			code:    "R023",
			wantMsg: "Node is not a leaf",
			wantCat: CategoryUI,
		},
		{
			name:    "unknown error code",
			code:    "R999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, tt.wantCat, err.Category)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New("R001")
	err := fmt.Errorf("reading: %w", New("R001").WithDetail("value 1.1"))

	assert.True(t, stderrors.Is(err, sentinel))
	assert.False(t, stderrors.Is(err, New("R002")))
	assert.False(t, stderrors.Is(err, Newf(CategoryReactive, "no code")))
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("R003").Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "R003: Derived computation failed: boom", err.Error())
}

func TestErrorIncludesDetail(t *testing.T) {
	err := New("R001").WithDetailf("effect %s", "2.1")
	assert.Equal(t, "R001: Stale handle (effect 2.1)", err.Error())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil, "R040"))

	re := New("R041")
	assert.Same(t, re, FromError(re, "R040"))

	wrapped := FromError(stderrors.New("disk"), "R040")
	assert.Equal(t, "R040", wrapped.Code)
	assert.Equal(t, CategoryPersist, wrapped.Category)
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New("R007").WithDetail("1000 runs in one drain").Format()
	assert.Contains(t, out, "error R007: Effect storm budget exceeded")
	assert.Contains(t, out, "1000 runs in one drain")
	assert.Contains(t, out, "hint: ")
	assert.NotContains(t, out, "\033[")
}

func TestFormatCompact(t *testing.T) {
	assert.Equal(t, "R020: Unknown or removed node: node 4.2",
		New("R020").WithDetail("node 4.2").FormatCompact())
}

func TestFormatJSON(t *testing.T) {
	var decoded map[string]string
	err := json.Unmarshal([]byte(New("R002").WithDetail("derived 0.1").FormatJSON()), &decoded)
	require.NoError(t, err)

	assert.Equal(t, "R002", decoded["code"])
	assert.Equal(t, "reactive", decoded["category"])
	assert.Equal(t, "derived 0.1", decoded["detail"])
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, stderrors.New("plain"))
	assert.Contains(t, buf.String(), "error: plain")

	buf.Reset()
	PrintError(&buf, New("R060"))
	assert.Contains(t, buf.String(), "error R060: Invalid configuration file")

	buf.Reset()
	PrintError(&buf, fmt.Errorf("cell %q: %w", "count", New("R001").WithDetail("value 3.1")))
	assert.Contains(t, buf.String(), `cell "count"`)
	assert.Contains(t, buf.String(), "error R001:")
	assert.Contains(t, buf.String(), "value 3.1")
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 20)
	}
	assert.Nil(t, wrapText("", 10))
}

func TestGetAllCodesSorted(t *testing.T) {
	codes := GetAllCodes()
	require.NotEmpty(t, codes)
	assert.Equal(t, "R001", codes[0])
	for _, code := range codes {
		_, ok := GetTemplate(code)
		assert.True(t, ok, code)
	}
}
