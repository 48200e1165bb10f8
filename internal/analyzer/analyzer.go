// Package analyzer computes summary statistics over a scanned message
// collection: sender and domain frequencies, timeline distribution, and
// message size buckets. All functions are pure and operate on
// already-parsed messages.
package analyzer

import (
	"sort"
	"strings"
	"time"

	"github.com/nhle/mailsweep/internal/fingerprint"
	"github.com/nhle/mailsweep/internal/model"
)

// topLimit caps the number of entries in top-sender/top-domain lists.
const topLimit = 20

// CountEntry is one item of a frequency ranking.
type CountEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// SenderStats summarizes who sent the messages in a collection.
type SenderStats struct {
	TopSenders    []CountEntry `json:"top_senders"`
	TopDomains    []CountEntry `json:"top_domains"`
	UniqueSenders int          `json:"unique_senders"`
	UniqueDomains int          `json:"unique_domains"`
}

// AnalyzeSenders ranks senders and sender domains by message count.
// Messages without a parsable sender are skipped.
func AnalyzeSenders(messages []model.Message) SenderStats {
	senders := make(map[string]int)
	domains := make(map[string]int)

	for i := range messages {
		addr := fingerprint.NormalizeSender(messages[i].From)
		if addr == "" {
			continue
		}
		senders[addr]++
		if at := strings.LastIndexByte(addr, '@'); at > 0 {
			domains[addr[at+1:]]++
		}
	}

	return SenderStats{
		TopSenders:    topCounts(senders),
		TopDomains:    topCounts(domains),
		UniqueSenders: len(senders),
		UniqueDomains: len(domains),
	}
}

// TimelineStats summarizes when the messages in a collection were sent.
type TimelineStats struct {
	// First and Last bound the dated messages; zero when none are dated.
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`

	// PerDay is the average number of dated messages per day across the
	// First..Last range.
	PerDay float64 `json:"per_day"`

	// HourCounts[h] is the number of messages sent in hour h (0..23).
	HourCounts [24]int `json:"hour_counts"`

	// WeekdayCounts[d] is the number of messages sent on weekday d
	// (time.Sunday == 0).
	WeekdayCounts [7]int `json:"weekday_counts"`

	// Dated is the number of messages carrying a parsable date.
	Dated int `json:"dated"`
	Total int `json:"total"`
}

// AnalyzeTimeline computes the date range and hour/weekday distribution
// of a collection. Undated messages count toward Total only.
func AnalyzeTimeline(messages []model.Message) TimelineStats {
	stats := TimelineStats{Total: len(messages)}

	for i := range messages {
		m := &messages[i]
		if !m.HasDate() {
			continue
		}
		stats.Dated++
		if stats.First.IsZero() || m.Date.Before(stats.First) {
			stats.First = m.Date
		}
		if m.Date.After(stats.Last) {
			stats.Last = m.Date
		}
		stats.HourCounts[m.Date.Hour()]++
		stats.WeekdayCounts[int(m.Date.Weekday())]++
	}

	if stats.Dated > 0 {
		days := stats.Last.Sub(stats.First).Hours()/24 + 1
		stats.PerDay = float64(stats.Dated) / days
	}
	return stats
}

// SizeStats summarizes raw message sizes.
type SizeStats struct {
	TotalBytes int64 `json:"total_bytes"`
	MaxBytes   int64 `json:"max_bytes"`
	MeanBytes  int64 `json:"mean_bytes"`

	// Buckets counts messages under 4 KiB, 64 KiB, 1 MiB, and above.
	Buckets [4]int `json:"buckets"`
}

// AnalyzeSizes computes the size distribution of a collection.
func AnalyzeSizes(messages []model.Message) SizeStats {
	var stats SizeStats
	for i := range messages {
		size := messages[i].RawSize
		stats.TotalBytes += size
		if size > stats.MaxBytes {
			stats.MaxBytes = size
		}
		switch {
		case size < 4<<10:
			stats.Buckets[0]++
		case size < 64<<10:
			stats.Buckets[1]++
		case size < 1<<20:
			stats.Buckets[2]++
		default:
			stats.Buckets[3]++
		}
	}
	if len(messages) > 0 {
		stats.MeanBytes = stats.TotalBytes / int64(len(messages))
	}
	return stats
}

// topCounts ranks a frequency map, highest count first, ties broken by
// key for determinism, truncated to topLimit entries.
func topCounts(counts map[string]int) []CountEntry {
	entries := make([]CountEntry, 0, len(counts))
	for k, c := range counts {
		entries = append(entries, CountEntry{Key: k, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	if len(entries) > topLimit {
		entries = entries[:topLimit]
	}
	return entries
}
