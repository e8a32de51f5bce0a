package errors

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"capl-hq/capl/pkg/capl/ast"
)

// ExtractContext reads the source file and extracts the surrounding lines
// around the given location for diagnostic display. It returns a formatted
// string showing the error location with line numbers. Indentation in the
// source is preserved verbatim so the reader sees the block structure.
func ExtractContext(location ast.Location, contextLines int) string {
	if !location.IsValid() || location.File == "" {
		return ""
	}

	file, err := os.Open(location.File)
	if err != nil {
		// File not accessible, return empty context
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lines := make([]string, 0)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return ""
	}

	errorLine := location.Line - 1 // 0-based index
	startLine := errorLine - contextLines
	endLine := errorLine + contextLines

	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}
	if errorLine < 0 || errorLine >= len(lines) {
		return ""
	}

	var sb strings.Builder
	maxLineNumWidth := len(fmt.Sprintf("%d", endLine+1))

	for i := startLine; i <= endLine; i++ {
		lineNumStr := fmt.Sprintf("%*d", maxLineNumWidth, i+1)
		prefix := "  "
		if i == errorLine {
			prefix = "->"
		}

		sb.WriteString(fmt.Sprintf("%s %s | %s\n", prefix, lineNumStr, lines[i]))

		if i == errorLine && location.Column > 0 {
			padding := strings.Repeat(" ", location.Column-1)
			sb.WriteString(fmt.Sprintf("  %s | %s^\n", strings.Repeat(" ", maxLineNumWidth), padding))
		}
	}

	return sb.String()
}

// WithContext enriches an error with context extracted from the source file.
func WithContext(err *Error, contextLines int) *Error {
	if err.Location.IsValid() {
		err.Context = ExtractContext(err.Location, contextLines)
	}
	return err
}

// AddContextToError adds two lines of surrounding source to a diagnostic.
func AddContextToError(err *Error) *Error {
	return WithContext(err, 2)
}

// AddContextToList enriches every diagnostic in the list with source context.
func AddContextToList(el *ErrorList) {
	for i, e := range el.Errors {
		el.Errors[i] = AddContextToError(e)
	}
}
