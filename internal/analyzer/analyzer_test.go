package analyzer

import (
	"testing"
	"time"

	"github.com/nhle/mailsweep/internal/model"
)

func msg(from string, date time.Time, size int64) model.Message {
	return model.Message{From: from, Date: date, RawSize: size}
}

func TestAnalyzeSenders(t *testing.T) {
	d := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	messages := []model.Message{
		msg("Jane <jane@example.com>", d, 100),
		msg("jane@example.com", d, 100),
		msg("JANE@EXAMPLE.COM", d, 100),
		msg("bob@other.org", d, 100),
		msg("", d, 100), // skipped
	}

	stats := AnalyzeSenders(messages)
	if stats.UniqueSenders != 2 {
		t.Errorf("UniqueSenders = %d, want 2", stats.UniqueSenders)
	}
	if stats.UniqueDomains != 2 {
		t.Errorf("UniqueDomains = %d, want 2", stats.UniqueDomains)
	}
	if len(stats.TopSenders) == 0 || stats.TopSenders[0].Key != "jane@example.com" || stats.TopSenders[0].Count != 3 {
		t.Errorf("TopSenders[0] = %+v, want jane@example.com x3", stats.TopSenders)
	}
	if len(stats.TopDomains) == 0 || stats.TopDomains[0].Key != "example.com" {
		t.Errorf("TopDomains[0] = %+v, want example.com first", stats.TopDomains)
	}
}

func TestAnalyzeTimeline(t *testing.T) {
	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)  // Friday
	last := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)  // Monday
	messages := []model.Message{
		msg("a@example.com", first, 10),
		msg("a@example.com", last, 10),
		msg("a@example.com", time.Time{}, 10), // undated
	}

	stats := AnalyzeTimeline(messages)
	if stats.Total != 3 || stats.Dated != 2 {
		t.Errorf("Total/Dated = %d/%d, want 3/2", stats.Total, stats.Dated)
	}
	if !stats.First.Equal(first) || !stats.Last.Equal(last) {
		t.Errorf("range = %v..%v", stats.First, stats.Last)
	}
	if stats.HourCounts[9] != 1 || stats.HourCounts[15] != 1 {
		t.Errorf("hour distribution wrong: %v", stats.HourCounts)
	}
	if stats.WeekdayCounts[int(time.Friday)] != 1 || stats.WeekdayCounts[int(time.Monday)] != 1 {
		t.Errorf("weekday distribution wrong: %v", stats.WeekdayCounts)
	}
	if stats.PerDay <= 0 {
		t.Errorf("PerDay = %f, want positive", stats.PerDay)
	}
}

func TestAnalyzeTimelineEmpty(t *testing.T) {
	stats := AnalyzeTimeline(nil)
	if stats.Total != 0 || stats.Dated != 0 || stats.PerDay != 0 {
		t.Errorf("empty timeline stats: %+v", stats)
	}
}

func TestAnalyzeSizes(t *testing.T) {
	messages := []model.Message{
		msg("a@example.com", time.Time{}, 1<<10),  // 1 KiB
		msg("a@example.com", time.Time{}, 32<<10), // 32 KiB
		msg("a@example.com", time.Time{}, 2<<20),  // 2 MiB
	}

	stats := AnalyzeSizes(messages)
	if stats.TotalBytes != 1<<10+32<<10+2<<20 {
		t.Errorf("TotalBytes = %d", stats.TotalBytes)
	}
	if stats.MaxBytes != 2<<20 {
		t.Errorf("MaxBytes = %d", stats.MaxBytes)
	}
	if stats.Buckets != [4]int{1, 1, 0, 1} {
		t.Errorf("Buckets = %v, want [1 1 0 1]", stats.Buckets)
	}
	if stats.MeanBytes == 0 {
		t.Error("MeanBytes not computed")
	}
}

func TestTopCountsDeterministicOnTies(t *testing.T) {
	d := time.Now()
	messages := []model.Message{
		msg("b@example.com", d, 1),
		msg("a@example.com", d, 1),
	}
	stats := AnalyzeSenders(messages)
	if stats.TopSenders[0].Key != "a@example.com" {
		t.Errorf("tie not broken by key: %+v", stats.TopSenders)
	}
}
