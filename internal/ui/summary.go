package ui

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/yourusername/showcase-dl/internal/domain"
)

// RenderSummary renders the final state of every video as a table, for printing
// once the terminal has been released
func RenderSummary(snap domain.RegistrySnapshot, colorize bool) string {
	if len(snap.Videos) == 0 {
		return "No videos found.\n"
	}

	p := painter{colorize: colorize}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{"Video", "Stage", "Progress", "Destination"})

	for _, video := range snap.Videos {
		stage := video.Stage.Label()
		if video.Failure != "" {
			stage = fmt.Sprintf("%s (%s)", stage, video.Failure)
		}
		tw.AppendRow(table.Row{
			video.DisplayName(),
			p.paint(stage, stageColor(video.Stage)),
			fmt.Sprintf("%.1f %%", video.DisplayPercent()),
			video.OutputFile,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 60},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, WidthMax: 60},
	})

	return tw.Render() + "\n"
}
