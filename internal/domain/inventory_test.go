package domain_test

import (
	"testing"

	"stayhub/internal/domain"
)

func TestSellableRooms(t *testing.T) {
	cases := []struct {
		base, buffer, want int
	}{
		{10, 0, 10},
		{10, 10, 9},
		{10, 15, 8}, // floors
		{10, 100, 0},
		{0, 0, 0},
		{-3, 0, 0},
		{10, -5, 10},  // clamped
		{10, 120, 0},  // clamped
	}
	for _, c := range cases {
		if got := domain.SellableRooms(c.base, c.buffer); got != c.want {
			t.Fatalf("SellableRooms(%d,%d) = %d, want %d", c.base, c.buffer, got, c.want)
		}
	}
}

func newRow(sellable int) domain.LedgerRow {
	return domain.LedgerRow{
		BaseAvailable: sellable,
		Sellable:      sellable,
		FreeToSell:    sellable,
	}
}

func TestApplyHold(t *testing.T) {
	row := newRow(10)

	if err := row.ApplyHold(4, false); err != nil {
		t.Fatalf("err: %v", err)
	}
	if row.Holds != 4 || row.FreeToSell != 6 {
		t.Fatalf("unexpected row: %+v", row)
	}

	if err := row.ApplyHold(7, false); err != domain.ErrInsufficientInventory {
		t.Fatalf("expected ErrInsufficientInventory, got %v", err)
	}
	if row.Holds != 4 || row.FreeToSell != 6 {
		t.Fatalf("failed hold must not mutate row: %+v", row)
	}

	if err := row.ApplyHold(0, false); err != domain.ErrValidation {
		t.Fatalf("expected ErrValidation for zero rooms, got %v", err)
	}
}

func TestApplyHold_Overbooking(t *testing.T) {
	row := newRow(2)

	if err := row.ApplyHold(5, true); err != nil {
		t.Fatalf("overbooking-enabled hold failed: %v", err)
	}
	if row.Holds != 5 {
		t.Fatalf("holds = %d, want 5", row.Holds)
	}
	if row.FreeToSell != 0 {
		t.Fatalf("freeToSell must clamp at 0, got %d", row.FreeToSell)
	}
	if !row.Overbooked() {
		t.Fatalf("expected Overbooked")
	}
}

func TestApplyConfirm(t *testing.T) {
	row := newRow(10)
	_ = row.ApplyHold(3, false)

	before := row.FreeToSell
	row.ApplyConfirm(3)
	if row.Holds != 0 || row.Booked != 3 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.FreeToSell != before {
		t.Fatalf("confirm must not change freeToSell: %d -> %d", before, row.FreeToSell)
	}
}

func TestRelease(t *testing.T) {
	row := newRow(10)
	_ = row.ApplyHold(4, false)

	if clamped := row.Release(4, domain.StatusHold); clamped {
		t.Fatalf("unexpected clamp")
	}
	if row.Holds != 0 || row.FreeToSell != 10 {
		t.Fatalf("unexpected row after hold release: %+v", row)
	}

	_ = row.ApplyHold(4, false)
	row.ApplyConfirm(4)
	if clamped := row.Release(4, domain.StatusConfirmed); clamped {
		t.Fatalf("unexpected clamp")
	}
	if row.Booked != 0 || row.FreeToSell != 10 {
		t.Fatalf("unexpected row after confirmed release: %+v", row)
	}
}

func TestRelease_PendingBehavesLikeHold(t *testing.T) {
	row := newRow(10)
	_ = row.ApplyHold(2, false)

	row.Release(2, domain.StatusPending)
	if row.Holds != 0 || row.FreeToSell != 10 {
		t.Fatalf("PENDING release must come from holds: %+v", row)
	}
}

func TestRelease_DoubleReleaseClamps(t *testing.T) {
	row := newRow(10)
	_ = row.ApplyHold(2, false)
	row.Release(2, domain.StatusHold)

	clamped := row.Release(2, domain.StatusHold)
	if !clamped {
		t.Fatalf("expected clamp on double release")
	}
	if row.Holds != 0 || row.FreeToSell != 10 {
		t.Fatalf("double release corrupted row: %+v", row)
	}
}

func TestResync(t *testing.T) {
	row := newRow(10)
	_ = row.ApplyHold(3, false)
	row.ApplyConfirm(3)

	row.Resync(20, 10)
	if row.Sellable != 18 {
		t.Fatalf("sellable = %d, want 18", row.Sellable)
	}
	if row.Booked != 3 {
		t.Fatalf("resync must keep booked, got %d", row.Booked)
	}
	if row.FreeToSell != 15 {
		t.Fatalf("freeToSell = %d, want 15", row.FreeToSell)
	}

	// shrinking below committed capacity clamps free-to-sell at zero
	row.Resync(2, 0)
	if row.FreeToSell != 0 {
		t.Fatalf("freeToSell = %d, want 0", row.FreeToSell)
	}
}
