package cyclecount

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Gen7Fuel/thehub-sub000/internal/enum"
)

const (
	// DefaultChunkSize is the number of items assigned per day.
	DefaultChunkSize = 20
	// maxFlagged caps how many flagged items can claim priority slots.
	maxFlagged = 5
	// Per group of six regular slots: three A, two B, one C.
	groupSize = 6
)

// Item is one countable inventory record as the selector sees it.
type Item struct {
	ID           uuid.UUID
	UPC          string
	Name         string
	Grade        string
	Flagged      bool
	CountedToday bool
	UpdatedAt    time.Time
}

// Selection is the day's assignment split into its two buckets.
type Selection struct {
	Flagged []Item
	Regular []Item
}

// Items returns the combined assignment, flagged first.
func (s Selection) Items() []Item {
	out := make([]Item, 0, len(s.Flagged)+len(s.Regular))
	out = append(out, s.Flagged...)
	out = append(out, s.Regular...)
	return out
}

// SelectDaily picks today's count assignment from the site's item pool.
// Up to five flagged items take priority slots. Items already counted
// today are carried over into the remaining slots, then the rest are
// filled by grade in a 3:2:1 A:B:C split per group of six (remainder
// slots go to A), most-overdue first. The combined result never
// exceeds chunkSize.
func SelectDaily(pool []Item, chunkSize int) Selection {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	byOverdue := func(items []Item) {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].UpdatedAt.Before(items[j].UpdatedAt)
		})
	}

	var flagged, carried []Item
	grades := map[string][]Item{}
	for _, it := range pool {
		switch {
		case it.Flagged:
			flagged = append(flagged, it)
		case it.CountedToday:
			carried = append(carried, it)
		default:
			grades[it.Grade] = append(grades[it.Grade], it)
		}
	}

	byOverdue(flagged)
	if len(flagged) > maxFlagged {
		flagged = flagged[:maxFlagged]
	}
	if len(flagged) > chunkSize {
		flagged = flagged[:chunkSize]
	}

	slots := chunkSize - len(flagged)
	byOverdue(carried)
	if len(carried) > slots {
		carried = carried[:slots]
	}
	slots -= len(carried)

	for _, g := range []string{enum.ItemGradeA, enum.ItemGradeB, enum.ItemGradeC} {
		byOverdue(grades[g])
	}

	quotas := gradeQuotas(slots)
	regular := append([]Item{}, carried...)
	shortfall := 0
	for _, g := range []string{enum.ItemGradeA, enum.ItemGradeB, enum.ItemGradeC} {
		want := quotas[g]
		have := grades[g]
		if len(have) < want {
			shortfall += want - len(have)
			want = len(have)
		}
		regular = append(regular, have[:want]...)
		grades[g] = have[want:]
	}

	// Backfill unfilled grade quotas from whatever remains, A first.
	for _, g := range []string{enum.ItemGradeA, enum.ItemGradeB, enum.ItemGradeC} {
		if shortfall == 0 {
			break
		}
		have := grades[g]
		take := shortfall
		if len(have) < take {
			take = len(have)
		}
		regular = append(regular, have[:take]...)
		shortfall -= take
	}

	return Selection{Flagged: flagged, Regular: regular}
}

// gradeQuotas splits n regular slots into per-grade counts: 3:2:1 per
// full group of six, with any remainder going to grade A.
func gradeQuotas(n int) map[string]int {
	groups := n / groupSize
	return map[string]int{
		enum.ItemGradeA: groups*3 + n%groupSize,
		enum.ItemGradeB: groups * 2,
		enum.ItemGradeC: groups,
	}
}
