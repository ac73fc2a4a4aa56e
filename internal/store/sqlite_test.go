package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/calebsw/pilltrack/internal/errs"
	"github.com/calebsw/pilltrack/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "test.db"), nil)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testMedicine(id string) *model.Medicine {
	return &model.Medicine{
		ID:                id,
		Name:              "Aspirin",
		Dosage:            "500mg",
		PillsRemaining:    100,
		PillsPerDose:      1,
		LowStockThreshold: 20,
		Active:            true,
		Schedule: []model.ScheduleEntry{
			{Day: "mon", Window: "morning", Start: "06:00", End: "10:00"},
			{Day: "tue", Window: "morning", Start: "06:00", End: "10:00"},
		},
	}
}

func TestCreateAndGetMedicine(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m := testMedicine("")
	if err := s.CreateMedicine(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := s.GetMedicine(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Aspirin" || got.Dosage != "500mg" {
		t.Errorf("unexpected medicine: %+v", got)
	}
	if len(got.Schedule) != 2 {
		t.Fatalf("expected 2 schedule entries, got %d", len(got.Schedule))
	}
	if got.Schedule[0].Window != "morning" || got.Schedule[0].Start != "06:00" {
		t.Errorf("unexpected entry: %+v", got.Schedule[0])
	}
}

func TestCreateDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.CreateMedicine(ctx, testMedicine("med_1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := s.CreateMedicine(ctx, testMedicine("med_1"))
	if !errors.Is(err, errs.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestGetMissingMedicine(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetMedicine(context.Background(), "med_nope")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListMedicines(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := testMedicine("med_a")
	a.Name = "Zinc"
	b := testMedicine("med_b")
	b.Name = "Aspirin"
	c := testMedicine("med_c")
	c.Name = "Iron"
	c.Active = false

	for _, m := range []*model.Medicine{a, b, c} {
		if err := s.CreateMedicine(ctx, m); err != nil {
			t.Fatalf("create %s: %v", m.ID, err)
		}
	}

	active, err := s.ListMedicines(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active, got %d", len(active))
	}
	if active[0].Name != "Aspirin" || active[1].Name != "Zinc" {
		t.Errorf("expected name order, got %q, %q", active[0].Name, active[1].Name)
	}

	all, err := s.ListMedicines(ctx, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3, got %d", len(all))
	}
}

func TestPatchMedicine(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.CreateMedicine(ctx, testMedicine("med_1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	pills := 42
	inactive := false
	got, err := s.PatchMedicine(ctx, "med_1", MedicinePatch{
		PillsRemaining: &pills,
		Active:         &inactive,
	})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if got.PillsRemaining != 42 || got.Active {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.Name != "Aspirin" {
		t.Errorf("untouched field changed: %q", got.Name)
	}

	_, err = s.PatchMedicine(ctx, "med_nope", MedicinePatch{PillsRemaining: &pills})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceSchedule(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.CreateMedicine(ctx, testMedicine("med_1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	entries := []model.ScheduleEntry{
		{Day: "sun", Window: "evening", Start: "17:00", End: "20:00"},
	}
	if err := s.ReplaceSchedule(ctx, "med_1", entries); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, _ := s.GetMedicine(ctx, "med_1")
	if len(got.Schedule) != 1 || got.Schedule[0].Day != "sun" {
		t.Errorf("schedule not replaced: %+v", got.Schedule)
	}

	err := s.ReplaceSchedule(ctx, "med_nope", entries)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMedicineCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.CreateMedicine(ctx, testMedicine("med_1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := s.MarkTaken(ctx, MarkParams{
		MedicineID: "med_1", Window: "morning", Date: "2025-11-03",
		Timestamp: time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("mark taken: %v", err)
	}

	if err := s.DeleteMedicine(ctx, "med_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := s.GetMedicine(ctx, "med_1"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	records, err := s.History(ctx, HistoryParams{MedicineID: "med_1"})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected cascade to remove tracking, got %d records", len(records))
	}
	cands, err := s.PendingCandidates(ctx, "mon", "2025-11-03")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("expected no candidates after delete, got %d", len(cands))
	}

	if err := s.DeleteMedicine(ctx, "med_1"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLastUpdatedAdvances(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	before, err := s.LastUpdated(ctx)
	if err != nil {
		t.Fatalf("last updated: %v", err)
	}
	if !before.IsZero() {
		t.Errorf("expected zero before first write, got %v", before)
	}

	if err := s.CreateMedicine(ctx, testMedicine("med_1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	after, err := s.LastUpdated(ctx)
	if err != nil {
		t.Fatalf("last updated: %v", err)
	}
	if after.IsZero() {
		t.Error("expected last_updated set after a write")
	}
}
