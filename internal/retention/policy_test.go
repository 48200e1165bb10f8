package retention

import (
	"testing"
	"time"

	"github.com/nhle/mailsweep/internal/model"
)

func dated(seq int, t time.Time) model.Message {
	return model.Message{Seq: seq, Date: t}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"oldest", "oldest", false},
		{"", "oldest", false},
		{"newest", "newest", false},
		{"first", "first", false},
		{"largest", "", true},
	}
	for _, tt := range tests {
		p, err := ParsePolicy(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePolicy(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePolicy(%q): %v", tt.in, err)
		}
		if p.Name() != tt.want {
			t.Errorf("ParsePolicy(%q).Name() = %q, want %q", tt.in, p.Name(), tt.want)
		}
	}
}

func TestKeepOldestPrefersEarliestDate(t *testing.T) {
	group := &model.DuplicateGroup{Messages: []model.Message{
		dated(0, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		dated(1, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
		dated(2, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)),
	}}
	if got := (KeepOldest{}).Survivor(group); got != 1 {
		t.Errorf("Survivor = %d, want 1 (2024-01-15)", got)
	}
}

func TestKeepOldestSkipsUndated(t *testing.T) {
	group := &model.DuplicateGroup{Messages: []model.Message{
		{Seq: 0}, // no date
		dated(1, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
	}}
	if got := (KeepOldest{}).Survivor(group); got != 1 {
		t.Errorf("Survivor = %d, want 1 (undated member should not be preferred)", got)
	}
}

func TestKeepOldestAllUndatedKeepsFirstSeen(t *testing.T) {
	group := &model.DuplicateGroup{Messages: []model.Message{
		{Seq: 3},
		{Seq: 1},
		{Seq: 2},
	}}
	if got := (KeepOldest{}).Survivor(group); got != 1 {
		t.Errorf("Survivor = %d, want 1 (lowest Seq)", got)
	}
}

func TestKeepOldestDateTieBreaksBySeq(t *testing.T) {
	ts := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	group := &model.DuplicateGroup{Messages: []model.Message{
		dated(5, ts),
		dated(2, ts),
	}}
	if got := (KeepOldest{}).Survivor(group); got != 1 {
		t.Errorf("Survivor = %d, want 1 (same date, lower Seq)", got)
	}
}

func TestKeepNewestPrefersLatestDate(t *testing.T) {
	group := &model.DuplicateGroup{Messages: []model.Message{
		dated(0, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		dated(1, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
		dated(2, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)),
	}}
	if got := (KeepNewest{}).Survivor(group); got != 0 {
		t.Errorf("Survivor = %d, want 0 (2024-03-01)", got)
	}
}

func TestKeepFirstIgnoresDates(t *testing.T) {
	group := &model.DuplicateGroup{Messages: []model.Message{
		dated(2, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		dated(0, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)),
	}}
	if got := (KeepFirst{}).Survivor(group); got != 1 {
		t.Errorf("Survivor = %d, want 1 (lowest Seq regardless of dates)", got)
	}
}

func TestSurvivorIsDeterministic(t *testing.T) {
	group := &model.DuplicateGroup{Messages: []model.Message{
		dated(0, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
		dated(1, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
		{Seq: 2},
	}}
	for _, p := range []Policy{KeepOldest{}, KeepNewest{}, KeepFirst{}} {
		first := p.Survivor(group)
		for i := 0; i < 10; i++ {
			if got := p.Survivor(group); got != first {
				t.Fatalf("%s: survivor changed between calls: %d vs %d", p.Name(), first, got)
			}
		}
	}
}
