package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/yourusername/showcase-dl/api/handlers"
)

var statusCmd = &cobra.Command{
	Use:   "status <addr>",
	Short: "Show the videos of a running instance started with --status-addr",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseURL := args[0]
		if !strings.Contains(baseURL, "://") {
			baseURL = "http://" + baseURL
		}

		list, err := fetchVideoList(strings.TrimSuffix(baseURL, "/") + "/api/v1/videos")
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Stage: %s\n", list.Stage)
		fmt.Fprintln(os.Stdout, renderStatusTable(list))
		return nil
	},
}

func fetchVideoList(url string) (*handlers.VideoListResponse, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("instance not reachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var list handlers.VideoListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &list, nil
}

func renderStatusTable(list *handlers.VideoListResponse) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Video", "Stage", "Progress", "Destination"})

	for _, video := range list.Videos {
		progress := "-"
		if video.PercentDone != nil {
			progress = fmt.Sprintf("%.1f %%", *video.PercentDone)
		}
		id := video.ID
		if len(id) > 8 {
			id = id[:8]
		}
		tw.AppendRow(table.Row{
			id,
			video.DisplayName(),
			video.StageName,
			progress,
			video.OutputFile,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 50},
		{Number: 5, WidthMax: 50},
	})
	return tw.Render()
}
