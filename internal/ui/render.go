package ui

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/yourusername/showcase-dl/internal/domain"
)

const (
	columnSpacing = 2
	videoSpacing  = 1
	gaugeFilled   = "█"
	gaugeEmpty    = " "
)

var headerColumns = []string{"Stage", "Progress", "Destination", "Size", "Speed", "ETA", "Fragments"}

// column shares in percent of the usable width
var (
	detailShares = []int{10, 10, 40, 10, 10, 10, 10}
	rawShares    = []int{10, 10, 40, 40}
)

type painter struct {
	colorize bool
}

func (p painter) paint(s string, colors ...text.Color) string {
	if !p.colorize || s == "" {
		return s
	}
	return text.Colors(colors).Sprint(s)
}

func stageColor(stage domain.VideoStage) text.Color {
	switch stage.Kind {
	case domain.StageRunning:
		return text.FgYellow
	case domain.StageShuttingDown:
		return text.FgBlue
	case domain.StageFinished:
		return text.FgGreen
	case domain.StageFailed:
		return text.FgRed
	default:
		return text.FgCyan
	}
}

// renderFrame lays out one full frame as screen lines, at most height of them
func renderFrame(snap domain.RegistrySnapshot, width, height int, colorize bool) []string {
	if width <= 2 || height <= 0 {
		return nil
	}
	p := painter{colorize: colorize}
	inner := width - 2

	lines := []string{
		"",
		" " + ruleWithTitle(snap.Stage.Title(), inner, "━", p, text.Bold, text.FgHiWhite),
		" " + p.paint(row(headerColumns, detailShares, inner), text.Bold),
		"",
	}

	for _, video := range snap.Videos {
		percent := video.DisplayPercent()
		lines = append(lines,
			" "+ruleWithTitle(video.DisplayName()+" ", inner, "─", p, text.Bold),
			" "+detailRow(video, percent, inner, p),
			" "+gauge(percent, inner, p, stageColor(video.Stage)),
		)
		for i := 0; i < videoSpacing; i++ {
			lines = append(lines, "")
		}
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return lines
}

// ruleWithTitle draws a horizontal rule of width with title centered on it
func ruleWithTitle(title string, width int, fill string, p painter, colors ...text.Color) string {
	title = trimToWidth(title, width)
	rest := width - text.RuneWidthWithoutEscSequences(title)
	left := rest / 2
	right := rest - left
	return p.paint(strings.Repeat(fill, left), text.FgHiBlack) +
		p.paint(title, colors...) +
		p.paint(strings.Repeat(fill, right), text.FgHiBlack)
}

// trimToWidth cuts s to at most width terminal cells
func trimToWidth(s string, width int) string {
	if text.RuneWidthWithoutEscSequences(s) <= width {
		return s
	}
	used := 0
	for i, r := range s {
		w := text.RuneWidthWithoutEscSequences(string(r))
		if used+w > width {
			return s[:i]
		}
		used += w
	}
	return s
}

// columnWidths splits width by shares, leaving spacing between columns
func columnWidths(shares []int, width int) []int {
	usable := width - columnSpacing*(len(shares)-1)
	if usable < len(shares) {
		usable = len(shares)
	}
	widths := make([]int, len(shares))
	for i, share := range shares {
		widths[i] = usable * share / 100
	}
	return widths
}

// row aligns plain cells into columns; cells must not carry escape sequences
func row(cells []string, shares []int, width int) string {
	return coloredRow(cells, shares, width, nil)
}

// coloredRow aligns cells into columns, painting each with its color if set
func coloredRow(cells []string, shares []int, width int, paint func(i int, cell string) string) string {
	widths := columnWidths(shares, width)
	var b strings.Builder
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		cell = text.AlignLeft.Apply(trimToWidth(cell, w), w)
		if paint != nil {
			cell = paint(i, cell)
		}
		b.WriteString(cell)
		if i < len(widths)-1 {
			b.WriteString(strings.Repeat(" ", columnSpacing))
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// detailRow is the parsed 7 column row, or 3 columns plus the raw line
func detailRow(video domain.VideoSnapshot, percent float64, width int, p painter) string {
	detail := video.ProgressDetail()
	cells := []string{
		video.Stage.Label(),
		fmt.Sprintf("%.1f %%", percent),
		video.OutputFile,
	}

	shares := detailShares
	switch detail.Kind {
	case domain.ProgressParsed:
		c := detail.Cells()
		cells = append(cells, c[:]...)
	case domain.ProgressRaw:
		shares = rawShares
		// the last line after finishing is merger cleanup noise
		if video.Stage.Kind != domain.StageFinished {
			cells = append(cells, detail.Line)
		}
	}

	color := stageColor(video.Stage)
	return coloredRow(cells, shares, width, func(i int, cell string) string {
		if i == 0 {
			return p.paint(cell, color)
		}
		return cell
	})
}

// gauge draws a full width bar with the percentage centered on it
func gauge(percent float64, width int, p painter, color text.Color) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	label := fmt.Sprintf("%.1f%%", percent)
	filled := int(float64(width) * percent / 100)
	start := (width - len(label)) / 2

	var bar, rest strings.Builder
	for i := 0; i < width; i++ {
		ch := gaugeEmpty
		if i >= start && i < start+len(label) {
			ch = string(label[i-start])
		} else if i < filled {
			ch = gaugeFilled
		}
		if i < filled {
			bar.WriteString(ch)
		} else {
			rest.WriteString(ch)
		}
	}

	return p.paint(bar.String(), color, text.Bold) + p.paint(rest.String(), text.FgHiBlack)
}

// frameBytes turns lines into one screen update that overwrites the previous frame
func frameBytes(lines []string) []byte {
	var b strings.Builder
	b.WriteString(ansiHome)
	for i, line := range lines {
		b.WriteString(line)
		b.WriteString(ansiClearLine)
		if i < len(lines)-1 {
			b.WriteString("\r\n")
		}
	}
	b.WriteString(ansiClearBelow)
	return []byte(b.String())
}
