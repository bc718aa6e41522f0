package tickmath

import (
	"testing"

	"lukechampine.com/uint128"
)

func TestSqrtPriceAtTickZero(t *testing.T) {
	got, err := SqrtPriceAtTick(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1.0001^0 == 1, so sqrt price at tick 0 is exactly 2^64.
	want := uint128.New(0, 1)
	if got.Cmp(want) != 0 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSqrtPriceAtTickOutOfRange(t *testing.T) {
	if _, err := SqrtPriceAtTick(MaxTick + 1); err == nil {
		t.Fatal("expected error for tick above MaxTick")
	}
	if _, err := SqrtPriceAtTick(MinTick - 1); err == nil {
		t.Fatal("expected error for tick below MinTick")
	}
}

func TestTickSqrtPriceRoundTrip(t *testing.T) {
	for _, tick := range []int32{0, 1, -1, 100, -100, 1000, -1000, 50000, -50000} {
		price, err := SqrtPriceAtTick(tick)
		if err != nil {
			t.Fatalf("SqrtPriceAtTick(%d): %v", tick, err)
		}
		got, err := TickAtSqrtPrice(price)
		if err != nil {
			t.Fatalf("TickAtSqrtPrice round trip for tick %d: %v", tick, err)
		}
		if got != tick {
			t.Errorf("round trip mismatch: started at %d, got back %d", tick, got)
		}
	}
}

func TestSqrtPriceMonotonic(t *testing.T) {
	prev, err := SqrtPriceAtTick(MinTick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tick := range []int32{-200000, -1, 0, 1, 200000, MaxTick} {
		cur, err := SqrtPriceAtTick(tick)
		if err != nil {
			t.Fatalf("unexpected error at tick %d: %v", tick, err)
		}
		if cur.Cmp(prev) < 0 {
			t.Errorf("sqrt price not monotonic at tick %d", tick)
		}
		prev = cur
	}
}

func TestTickAtSqrtPriceOutOfRange(t *testing.T) {
	below := MinSqrtPriceX64.Sub(uint128.From64(1))
	if _, err := TickAtSqrtPrice(below); err == nil {
		t.Fatal("expected error for sqrt price below MinSqrtPriceX64")
	}
	above := MaxSqrtPriceX64.Add(uint128.From64(1))
	if _, err := TickAtSqrtPrice(above); err == nil {
		t.Fatal("expected error for sqrt price above MaxSqrtPriceX64")
	}
}
