package cyclecount_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Gen7Fuel/thehub-sub000/internal/cyclecount"
	"github.com/Gen7Fuel/thehub-sub000/internal/enum"
)

var base = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func makeItems(n int, grade string, flagged, counted bool) []cyclecount.Item {
	items := make([]cyclecount.Item, n)
	for i := range items {
		items[i] = cyclecount.Item{
			ID:           uuid.New(),
			UPC:          fmt.Sprintf("%s-%03d", grade, i),
			Name:         fmt.Sprintf("item %s %d", grade, i),
			Grade:        grade,
			Flagged:      flagged,
			CountedToday: counted,
			UpdatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
	}
	return items
}

func gradeCounts(items []cyclecount.Item) map[string]int {
	counts := map[string]int{}
	for _, it := range items {
		counts[it.Grade]++
	}
	return counts
}

func TestSelectDailyNeverExceedsChunk(t *testing.T) {
	pool := append(makeItems(30, enum.ItemGradeA, false, false),
		makeItems(10, enum.ItemGradeA, true, false)...)

	sel := cyclecount.SelectDaily(pool, 20)
	if got := len(sel.Items()); got != 20 {
		t.Errorf("selected %d items, want 20", got)
	}
}

func TestSelectDailyFlaggedCappedAtFive(t *testing.T) {
	pool := append(makeItems(10, enum.ItemGradeA, true, false),
		makeItems(30, enum.ItemGradeA, false, false)...)

	sel := cyclecount.SelectDaily(pool, 20)
	if len(sel.Flagged) != 5 {
		t.Errorf("flagged = %d, want 5", len(sel.Flagged))
	}
	if got := len(sel.Items()); got != 20 {
		t.Errorf("total = %d, want 20", got)
	}
}

func TestSelectDailyFlaggedMostOverdueFirst(t *testing.T) {
	pool := makeItems(10, enum.ItemGradeA, true, false)

	sel := cyclecount.SelectDaily(pool, 20)
	for i := 1; i < len(sel.Flagged); i++ {
		if sel.Flagged[i].UpdatedAt.Before(sel.Flagged[i-1].UpdatedAt) {
			t.Fatal("flagged items not ordered oldest-updated first")
		}
	}
	if sel.Flagged[0].UPC != "A-000" {
		t.Errorf("most overdue item is %s, want A-000", sel.Flagged[0].UPC)
	}
}

func TestSelectDailyGradeSplit(t *testing.T) {
	pool := makeItems(20, enum.ItemGradeA, false, false)
	pool = append(pool, makeItems(20, enum.ItemGradeB, false, false)...)
	pool = append(pool, makeItems(20, enum.ItemGradeC, false, false)...)

	// 18 slots = three full groups of six: 9 A, 6 B, 3 C.
	sel := cyclecount.SelectDaily(pool, 18)
	counts := gradeCounts(sel.Regular)
	if counts[enum.ItemGradeA] != 9 || counts[enum.ItemGradeB] != 6 || counts[enum.ItemGradeC] != 3 {
		t.Errorf("grade split = %v, want A:9 B:6 C:3", counts)
	}
}

func TestSelectDailyRemainderGoesToGradeA(t *testing.T) {
	pool := makeItems(20, enum.ItemGradeA, false, false)
	pool = append(pool, makeItems(20, enum.ItemGradeB, false, false)...)
	pool = append(pool, makeItems(20, enum.ItemGradeC, false, false)...)

	// 20 slots = 3 groups of six plus 2 remainder slots for A.
	sel := cyclecount.SelectDaily(pool, 20)
	counts := gradeCounts(sel.Regular)
	if counts[enum.ItemGradeA] != 11 || counts[enum.ItemGradeB] != 6 || counts[enum.ItemGradeC] != 3 {
		t.Errorf("grade split = %v, want A:11 B:6 C:3", counts)
	}
}

func TestSelectDailyBackfillsShortGrades(t *testing.T) {
	// Only 2 C items exist; the missing C slot falls back to A.
	pool := makeItems(20, enum.ItemGradeA, false, false)
	pool = append(pool, makeItems(20, enum.ItemGradeB, false, false)...)
	pool = append(pool, makeItems(2, enum.ItemGradeC, false, false)...)

	sel := cyclecount.SelectDaily(pool, 18)
	counts := gradeCounts(sel.Regular)
	if counts[enum.ItemGradeC] != 2 {
		t.Errorf("C count = %d, want 2", counts[enum.ItemGradeC])
	}
	if got := len(sel.Regular); got != 18 {
		t.Errorf("regular = %d, want 18 after backfill", got)
	}
}

func TestSelectDailyCarriesCountedToday(t *testing.T) {
	counted := makeItems(3, enum.ItemGradeB, false, true)
	pool := append(counted, makeItems(30, enum.ItemGradeA, false, false)...)

	sel := cyclecount.SelectDaily(pool, 20)

	selected := map[uuid.UUID]bool{}
	for _, it := range sel.Regular {
		selected[it.ID] = true
	}
	for _, it := range counted {
		if !selected[it.ID] {
			t.Errorf("counted-today item %s dropped from the day's list", it.UPC)
		}
	}
	if got := len(sel.Items()); got != 20 {
		t.Errorf("total = %d, want 20", got)
	}
}

func TestSelectDailyZeroChunkUsesDefault(t *testing.T) {
	pool := makeItems(50, enum.ItemGradeA, false, false)

	sel := cyclecount.SelectDaily(pool, 0)
	if got := len(sel.Items()); got != cyclecount.DefaultChunkSize {
		t.Errorf("selected %d items, want default %d", got, cyclecount.DefaultChunkSize)
	}
}

func TestSelectDailySmallPool(t *testing.T) {
	pool := makeItems(4, enum.ItemGradeB, false, false)

	sel := cyclecount.SelectDaily(pool, 20)
	if got := len(sel.Items()); got != 4 {
		t.Errorf("selected %d items, want all 4", got)
	}
}
