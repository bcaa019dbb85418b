package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"checkpoint/internal/checkpoint"
	"checkpoint/internal/journal"
)

type checkpointView struct {
	Name      string `json:"name"`
	Current   bool   `json:"current"`
	Files     int    `json:"files"`
	Size      int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at,omitempty"`
	Missing   bool   `json:"missing,omitempty"`
}

type historyView struct {
	ID         int64  `json:"id"`
	RunID      string `json:"run_id"`
	Operation  string `json:"operation"`
	Checkpoint string `json:"checkpoint,omitempty"`
	Outcome    string `json:"outcome"`
	Files      int    `json:"files"`
	Detail     string `json:"detail,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List checkpoints of the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := ctx.manager()
			if err != nil {
				return err
			}
			summaries, err := mgr.List(cmd.Context())
			if err != nil {
				return err
			}
			views := make([]checkpointView, 0, len(summaries))
			for _, s := range summaries {
				views = append(views, checkpointViewFrom(s))
			}
			if asJSON {
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No checkpoints")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Current", "Files", "Size", "Created"},
				checkpointRows(views),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var name string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent checkpoint operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := ctx.manager()
			if err != nil {
				return err
			}
			entries, err := mgr.History(cmd.Context(), checkpoint.HistoryOptions{Limit: limit, Checkpoint: strings.TrimSpace(name)})
			if err != nil {
				return err
			}
			views := make([]historyView, 0, len(entries))
			for _, e := range entries {
				views = append(views, historyViewFrom(e))
			}
			if asJSON {
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No operations recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "When", "Operation", "Checkpoint", "Outcome", "Files"},
				historyRows(views),
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of operations to show")
	cmd.Flags().StringVar(&name, "checkpoint", "", "Only show operations on this checkpoint, oldest first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project checkpoint status and readiness checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := ctx.manager()
			if err != nil {
				return err
			}
			status, err := mgr.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range statusLines(status, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func statusLines(status *checkpoint.Status, colorize bool) []string {
	lines := renderSectionHeader("Project", colorize)
	lines = append(lines, renderStatusLine("Root", statusInfo, status.Root, colorize))
	if !status.Initialized {
		lines = append(lines, renderStatusLine("Initialized", statusWarn, "no (run checkpoint init)", colorize))
	} else {
		lines = append(lines, renderStatusLine("Initialized", statusOK, yesNo(true), colorize))
	}
	if project := status.Project; project != nil {
		current := project.Current()
		if current == "" {
			current = "none"
		}
		lines = append(lines,
			renderStatusLine("Current", statusInfo, current, colorize),
			renderStatusLine("Checkpoints", statusInfo, strconv.Itoa(len(project.Checkpoints)), colorize),
			renderStatusLine("Ignored dirs", statusInfo, strings.Join(project.IgnoreDirs, ", "), colorize),
		)
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Checks", colorize)...)
	for _, check := range status.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	return lines
}

func checkpointViewFrom(s checkpoint.Summary) checkpointView {
	view := checkpointView{
		Name:    s.Name,
		Current: s.Current,
		Files:   s.Files,
		Size:    s.Size,
		Missing: s.Missing,
	}
	if !s.CreatedAt.IsZero() {
		view.CreatedAt = s.CreatedAt.UTC().Format(time.RFC3339)
	}
	return view
}

func historyViewFrom(e journal.Entry) historyView {
	return historyView{
		ID:         e.ID,
		RunID:      e.RunID,
		Operation:  e.Operation,
		Checkpoint: e.Checkpoint,
		Outcome:    e.Outcome,
		Files:      e.Files,
		Detail:     e.Detail,
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func checkpointRows(views []checkpointView) [][]string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		current := ""
		if v.Current {
			current = "*"
		}
		if v.Missing {
			rows = append(rows, []string{v.Name, current, "-", "-", "missing"})
			continue
		}
		rows = append(rows, []string{
			v.Name,
			current,
			strconv.Itoa(v.Files),
			formatSize(v.Size),
			formatDisplayTime(v.CreatedAt),
		})
	}
	return rows
}

func historyRows(views []historyView) [][]string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		name := v.Checkpoint
		if name == "" {
			name = "-"
		}
		rows = append(rows, []string{
			strconv.FormatInt(v.ID, 10),
			formatDisplayTime(v.CreatedAt),
			v.Operation,
			name,
			v.Outcome,
			strconv.Itoa(v.Files),
		})
	}
	return rows
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Local().Format("2006-01-02 15:04")
	}
	return value
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
