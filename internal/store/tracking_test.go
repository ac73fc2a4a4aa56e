package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/calebsw/pilltrack/internal/errs"
	"github.com/calebsw/pilltrack/internal/model"
)

var monMorning = time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC) // a Monday

func markParams(id string) MarkParams {
	return MarkParams{
		MedicineID: id,
		Window:     "morning",
		Date:       monMorning.Format(model.DateFormat),
		Timestamp:  monMorning,
	}
}

func TestMarkTakenDecrementsStock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.CreateMedicine(ctx, testMedicine("med_1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := s.MarkTaken(ctx, markParams("med_1"))
	if err != nil {
		t.Fatalf("mark taken: %v", err)
	}
	if res.Outcome != OutcomeCreated {
		t.Errorf("expected created outcome, got %q", res.Outcome)
	}
	if res.PillsRemaining != 99 {
		t.Errorf("expected 99 pills, got %d", res.PillsRemaining)
	}
	if res.LowStock {
		t.Error("expected low_stock false at 99 > 20")
	}

	got, _ := s.GetMedicine(ctx, "med_1")
	if got.PillsRemaining != 99 {
		t.Errorf("stock not persisted: %d", got.PillsRemaining)
	}
}

func TestMarkTakenExplicitQuantity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.CreateMedicine(ctx, testMedicine("med_1"))

	p := markParams("med_1")
	p.Quantity = 3
	res, err := s.MarkTaken(ctx, p)
	if err != nil {
		t.Fatalf("mark taken: %v", err)
	}
	if res.PillsRemaining != 97 {
		t.Errorf("expected 97, got %d", res.PillsRemaining)
	}
}

func TestMarkTakenConflictOnResolvedSlot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.CreateMedicine(ctx, testMedicine("med_1"))

	if _, err := s.MarkTaken(ctx, markParams("med_1")); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	_, err := s.MarkTaken(ctx, markParams("med_1"))
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The rejected attempt must not touch stock.
	got, _ := s.GetMedicine(ctx, "med_1")
	if got.PillsRemaining != 99 {
		t.Errorf("expected single decrement, got %d", got.PillsRemaining)
	}
}

func TestMarkTakenMissingAndInactive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.MarkTaken(ctx, markParams("med_nope"))
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing, got %v", err)
	}

	m := testMedicine("med_off")
	m.Active = false
	s.CreateMedicine(ctx, m)
	_, err = s.MarkTaken(ctx, markParams("med_off"))
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound for inactive, got %v", err)
	}
}

func TestMarkTakenStockUnderflow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	m := testMedicine("med_1")
	m.PillsRemaining = 2
	m.PillsPerDose = 3
	s.CreateMedicine(ctx, m)

	_, err := s.MarkTaken(ctx, markParams("med_1"))
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	got, _ := s.GetMedicine(ctx, "med_1")
	if got.PillsRemaining != 2 {
		t.Errorf("rejected mark must not touch stock, got %d", got.PillsRemaining)
	}

	p := markParams("med_1")
	p.ClampStock = true
	res, err := s.MarkTaken(ctx, p)
	if err != nil {
		t.Fatalf("clamped mark: %v", err)
	}
	if res.PillsRemaining != 0 {
		t.Errorf("expected clamp to zero, got %d", res.PillsRemaining)
	}
}

func TestMarkTakenRemarkOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.CreateMedicine(ctx, testMedicine("med_1"))

	if _, err := s.MarkTaken(ctx, markParams("med_1")); err != nil {
		t.Fatalf("first mark: %v", err)
	}

	p := markParams("med_1")
	p.AllowRemark = true
	res, err := s.MarkTaken(ctx, p)
	if err != nil {
		t.Fatalf("remark: %v", err)
	}
	if res.Outcome != OutcomeUpdated {
		t.Errorf("expected updated outcome, got %q", res.Outcome)
	}
}

func TestLowStockBoundary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	m := testMedicine("med_1")
	m.PillsRemaining = 20
	m.LowStockThreshold = 20
	s.CreateMedicine(ctx, m)

	res, err := s.MarkTaken(ctx, markParams("med_1"))
	if err != nil {
		t.Fatalf("mark taken: %v", err)
	}
	if res.PillsRemaining != 19 {
		t.Fatalf("expected 19, got %d", res.PillsRemaining)
	}
	if !res.LowStock {
		t.Error("expected low_stock true at 19 <= 20")
	}

	low, err := s.LowStockMedicines(ctx)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(low) != 1 || low[0].ID != "med_1" {
		t.Errorf("expected med_1 in low stock list, got %+v", low)
	}
}

func TestMarkSkipped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.CreateMedicine(ctx, testMedicine("med_1"))

	p := markParams("med_1")
	p.Reason = "Forgot"
	res, err := s.MarkSkipped(ctx, p)
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if res.SkipReason != "Forgot" {
		t.Errorf("expected reason, got %q", res.SkipReason)
	}
	if res.PillsRemaining != 100 {
		t.Errorf("skip must not touch stock, got %d", res.PillsRemaining)
	}

	// A skipped slot is resolved; taking it afterwards conflicts.
	_, err = s.MarkTaken(ctx, markParams("med_1"))
	if !errors.Is(err, errs.ErrConflict) {
		t.Errorf("expected ErrConflict after skip, got %v", err)
	}

	records, _ := s.History(ctx, HistoryParams{MedicineID: "med_1", SkippedOnly: true})
	if len(records) != 1 || !records[0].Skipped || records[0].SkipReason != "Forgot" {
		t.Errorf("unexpected skip history: %+v", records)
	}
}

func TestPendingCandidatesExcludesResolved(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.CreateMedicine(ctx, testMedicine("med_1"))

	date := monMorning.Format(model.DateFormat)
	cands, err := s.PendingCandidates(ctx, "mon", date)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}

	if _, err := s.MarkTaken(ctx, markParams("med_1")); err != nil {
		t.Fatalf("mark: %v", err)
	}
	cands, _ = s.PendingCandidates(ctx, "mon", date)
	if len(cands) != 0 {
		t.Errorf("expected resolved slot excluded, got %d", len(cands))
	}

	// A different date leaves the slot pending again.
	cands, _ = s.PendingCandidates(ctx, "mon", "2025-11-10")
	if len(cands) != 1 {
		t.Errorf("expected next week pending, got %d", len(cands))
	}
}

func TestPendingCandidatesOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	evening := testMedicine("med_e")
	evening.Name = "Allopurinol"
	evening.Schedule = []model.ScheduleEntry{
		{Day: "mon", Window: "evening", Start: "17:00", End: "20:00"},
	}
	zinc := testMedicine("med_z")
	zinc.Name = "Zinc"
	aspirin := testMedicine("med_a")
	aspirin.Name = "Aspirin"

	for _, m := range []*model.Medicine{evening, zinc, aspirin} {
		if err := s.CreateMedicine(ctx, m); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	cands, err := s.PendingCandidates(ctx, "mon", "2025-11-03")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cands) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(cands))
	}
	order := []string{cands[0].Medicine.Name, cands[1].Medicine.Name, cands[2].Medicine.Name}
	want := []string{"Aspirin", "Zinc", "Allopurinol"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestConcurrentSameSlot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.CreateMedicine(ctx, testMedicine("med_1"))

	var wg sync.WaitGroup
	errc := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.MarkTaken(ctx, markParams("med_1"))
			errc <- err
		}()
	}
	wg.Wait()
	close(errc)

	var ok, failed int
	for err := range errc {
		if err == nil {
			ok++
			continue
		}
		if errors.Is(err, errs.ErrConflict) || errors.Is(err, errs.ErrBusy) {
			failed++
			continue
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if ok != 1 || failed != 1 {
		t.Fatalf("expected exactly one winner, got ok=%d failed=%d", ok, failed)
	}

	got, _ := s.GetMedicine(ctx, "med_1")
	if got.PillsRemaining != 99 {
		t.Errorf("expected single decrement under contention, got %d", got.PillsRemaining)
	}
}

func TestConcurrentDifferentMedicines(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.CreateMedicine(ctx, testMedicine("med_1"))
	s.CreateMedicine(ctx, testMedicine("med_2"))

	var wg sync.WaitGroup
	errc := make(chan error, 2)
	for _, id := range []string{"med_1", "med_2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.MarkTaken(ctx, markParams(id))
			errc <- err
		}(id)
	}
	wg.Wait()
	close(errc)

	for err := range errc {
		if err != nil {
			t.Errorf("expected both to succeed, got %v", err)
		}
	}
}
