package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Brand colors
var (
	Brand  = color.New(color.FgHiMagenta, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

const Mark = "\u25C9" // ◉

// Out is where ui helpers print. Tests point it at a buffer.
var Out io.Writer = os.Stdout

// SetColor turns colored output on or off. NO_COLOR always wins.
func SetColor(on bool) {
	if os.Getenv("NO_COLOR") != "" {
		on = false
	}
	color.NoColor = !on
}

// Banner prints the clustermap banner.
func Banner(subtitle string) {
	fmt.Fprintf(Out, "%s %s · %s\n\n", Brand.Sprint(Mark), Brand.Sprint("clustermap"), subtitle)
}

// Table prints a simple aligned table.
func Table(headers []string, rows [][]string) {
	TableColored(headers, rows, nil)
}

// TableColored is Table with an optional per-cell styling hook. Widths are
// measured before styling.
func TableColored(headers []string, rows [][]string, style func(row, col int, cell string) string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += fmt.Sprintf("%-*s  ", widths[i], h)
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	fmt.Fprintln(Out, Subtle.Sprint(headerLine))
	fmt.Fprintln(Out, Subtle.Sprint(sepLine))

	for r, row := range rows {
		line := "  "
		for i, cell := range row {
			if i >= len(widths) {
				continue
			}
			pad := strings.Repeat(" ", widths[i]-len(cell))
			if style != nil {
				cell = style(r, i, cell)
			}
			line += cell + pad + "  "
		}
		fmt.Fprintln(Out, line)
	}
}

// Swatch renders a colored block for a #rrggbb color. Other strings render
// as a plain block.
func Swatch(hex string) string {
	h := strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseUint(h, 16, 32)
	if len(h) != 6 || err != nil {
		return "██"
	}
	return color.RGB(int(v>>16&0xff), int(v>>8&0xff), int(v&0xff)).Sprint("██")
}

// StatusIcon returns a status icon string.
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

// WarnIcon returns a warning icon.
func WarnIcon() string {
	return Warn.Sprint("⚠")
}
