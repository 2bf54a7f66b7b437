package main

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"webvid/internal/history"
	"webvid/internal/pipeline"
)

func renderBundleSummary(bundle pipeline.Bundle) string {
	rows := make([][]string, 0, len(bundle.Artifacts))
	var total int64
	for _, rel := range bundle.Artifacts {
		size := "-"
		if info, err := os.Stat(filepath.Join(bundle.Output, rel)); err == nil {
			size = humanize.IBytes(uint64(info.Size()))
			total += info.Size()
		}
		rows = append(rows, []string{rel, artifactKind(rel), size})
	}
	return renderTable(tableSpec{
		headers: []string{"Artifact", "Kind", "Size"},
		aligns:  []columnAlignment{alignLeft, alignLeft, alignRight},
		rows:    rows,
		footer:  []string{strconv.Itoa(len(rows)) + " files", "", humanize.IBytes(uint64(total))},
	})
}

func renderHistory(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		elapsed := "-"
		if run.FinishedAt != nil {
			elapsed = formatElapsed(run.Elapsed())
		}
		rows = append(rows, []string{
			shortID(run.ID),
			string(run.Status),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			elapsed,
			strconv.Itoa(run.Artifacts),
			run.Output,
		})
	}
	return renderTable(tableSpec{
		headers: []string{"Run", "Status", "Started", "Elapsed", "Artifacts", "Output"},
		aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		rows:    rows,
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

func renderRunDetail(run history.Run) string {
	finished, elapsed := "-", "-"
	if run.FinishedAt != nil {
		finished = run.FinishedAt.Local().Format("2006-01-02 15:04:05")
		elapsed = formatElapsed(run.Elapsed())
	}
	rows := [][]string{
		{"Run", run.ID},
		{"Status", string(run.Status)},
		{"Video", run.Video},
		{"Subtitle", run.Subtitle},
		{"Output", run.Output},
		{"Parallel", yesNo(run.Parallel)},
		{"Atomic", yesNo(run.Atomic)},
		{"Started", run.StartedAt.Local().Format("2006-01-02 15:04:05")},
		{"Finished", finished},
		{"Elapsed", elapsed},
		{"Artifacts", strconv.Itoa(run.Artifacts)},
	}
	if run.ErrorMessage != "" {
		rows = append(rows, []string{"Error", run.ErrorMessage})
	}
	return renderTable(tableSpec{
		headers: []string{"Field", "Value"},
		aligns:  []columnAlignment{alignLeft, alignLeft},
		rows:    rows,
	})
}
