package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

var colorEnabled = true

// DisableColors turns off ANSI escapes in Format and PrintError.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI escapes back on.
func EnableColors() { colorEnabled = true }

func paint(text string, codes ...string) string {
	if !colorEnabled || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + ansiReset
}

// Format returns a multi-line error message for terminal display.
func (e *Error) Format() string {
	var b strings.Builder

	head := "error"
	if e.Code != "" {
		head += " " + e.Code
	}
	fmt.Fprintf(&b, "\n%s %s\n\n", paint(head+":", ansiRed, ansiBold), paint(e.Message, ansiBold))

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s %s\n\n", paint("cause:", ansiGray), e.Wrapped)
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n\n", paint("hint:", ansiCyan), e.Suggestion)
	}

	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *Error) FormatCompact() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// FormatJSON returns the error as a JSON object.
func (e *Error) FormatJSON() string {
	out := struct {
		Code       string   `json:"code,omitempty"`
		Category   Category `json:"category"`
		Message    string   `json:"message"`
		Detail     string   `json:"detail,omitempty"`
		Suggestion string   `json:"suggestion,omitempty"`
		Cause      string   `json:"cause,omitempty"`
	}{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var current strings.Builder

	for _, word := range words {
		if current.Len()+len(word)+1 > width {
			if current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}

// PrintError writes err to w. A coded error anywhere in the chain is
// printed in full, prefixed by any outer context.
func PrintError(w io.Writer, err error) {
	var coded *Error
	if !stderrors.As(err, &coded) {
		fmt.Fprintf(w, "\n%s %s\n\n", paint("error:", ansiRed, ansiBold), err)
		return
	}
	if outer := err.Error(); outer != coded.Error() {
		if i := strings.Index(outer, coded.Error()); i > 0 {
			fmt.Fprintf(w, "\n%s\n", strings.TrimSuffix(strings.TrimSpace(outer[:i]), ":"))
		}
	}
	fmt.Fprint(w, coded.Format())
}
