package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// out is where command output goes (stdout; swapped in tests)
var out io.Writer = os.Stdout

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Fprintln(out, "───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
}

// PrintHeader prints a title between double separators
func PrintHeader(title string) {
	fmt.Fprintln(out)
	PrintDoubleSeparator()
	fmt.Fprintf(out, "  %s\n", title)
	PrintDoubleSeparator()
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintf(out, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Fprintf(out, "✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(out, "❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Fprintf(out, "ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(out, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(out, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(out, "  ")
		}
	}
	fmt.Fprintln(out)
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Fprintf(out, "   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Fprintf(out, "   %-*s : %s\n", keyWidth, key, value)
}
