package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/nhle/mailsweep/internal/analyzer"
	"github.com/nhle/mailsweep/internal/model"
	"github.com/nhle/mailsweep/internal/theme"
)

var (
	headerStyle = theme.HeaderStyle
	groupStyle  = theme.GroupStyle
	subtleStyle = theme.SubtleStyle
	warnStyle   = theme.WarnStyle
	errorStyle  = theme.ErrorStyle
)

// printScan renders one folder's scan result: counts, then each duplicate
// group with its messages oldest first.
func printScan(res *model.ScanResult) {
	fmt.Println()
	fmt.Println(headerStyle.Render("Folder: " + res.Folder.DisplayName))
	fmt.Printf("%d emails scanned, %d parse errors, %d duplicate groups (%d duplicates)\n",
		res.TotalMessages, res.ParseErrors, len(res.Groups), res.DuplicateMessages())

	for i, group := range res.Groups {
		fmt.Println(groupStyle.Render(
			fmt.Sprintf("Group %d: %d copies", i+1, len(group.Messages))))
		for j, msg := range group.Messages {
			date := "(no date)"
			if msg.HasDate() {
				date = msg.Date.Local().Format("2006-01-02 15:04")
			}
			marker := "   "
			if j == 0 {
				marker = " * " // default survivor under keep-oldest
			}
			fmt.Printf("%s%s  %-30s %s\n", marker, date, truncate(msg.From, 30), truncate(msg.Subject, 50))
			if excerpt := msg.Preview().BodyExcerpt; excerpt != "" {
				fmt.Println(subtleStyle.Render("      " + truncate(excerpt, 80)))
			}
		}
	}
}

// printClean renders the outcome of cleaning one folder.
func printClean(res *model.CleanResult) {
	line := fmt.Sprintf("Cleaned %d duplicates (keep %s)", res.CleanedCount, res.SelectionMethod)
	if res.ErrorCount > 0 {
		line += fmt.Sprintf(", %d errors", res.ErrorCount)
		fmt.Println(warnStyle.Render(line))
	} else {
		fmt.Println(theme.SuccessStyle.Render(line))
	}
	for _, out := range res.Outcomes {
		if out.Kind == model.OutcomeError {
			fmt.Printf("  %s %s: %s\n",
				theme.OutcomeStyle(string(out.Kind)).Render(string(out.Kind)),
				truncate(out.Message.Subject, 50), out.Reason)
		}
	}
}

// printAnalysis renders sender, timeline, and size statistics for a
// folder's parsed messages.
func printAnalysis(messages []model.Message) {
	senders := analyzer.AnalyzeSenders(messages)
	timeline := analyzer.AnalyzeTimeline(messages)
	sizes := analyzer.AnalyzeSizes(messages)

	fmt.Println(groupStyle.Render("Folder statistics"))
	fmt.Printf("  %d senders across %d domains\n", senders.UniqueSenders, senders.UniqueDomains)
	for i, e := range senders.TopSenders {
		if i >= 5 {
			break
		}
		fmt.Printf("    %4d  %s\n", e.Count, e.Key)
	}
	if timeline.Dated > 0 {
		fmt.Printf("  %d of %d messages dated, %s to %s (%.1f/day)\n",
			timeline.Dated, timeline.Total,
			timeline.First.Local().Format("2006-01-02"),
			timeline.Last.Local().Format("2006-01-02"),
			timeline.PerDay)
	}
	fmt.Printf("  %s total, %s mean, %s largest\n",
		formatBytes(sizes.TotalBytes), formatBytes(sizes.MeanBytes), formatBytes(sizes.MaxBytes))
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	if cut > 3 {
		cut = max - 3
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if max <= 3 {
		return s[:cut]
	}
	return s[:cut] + "..."
}
