package fixedpoint

import (
	"testing"

	"lukechampine.com/uint128"
)

func TestMulDivFloor(t *testing.T) {
	cases := []struct {
		name        string
		a, b, denom uint128.Uint128
		want        uint128.Uint128
		wantErr     bool
	}{
		{"exact", uint128.From64(10), uint128.From64(3), uint128.From64(5), uint128.From64(6), false},
		{"floors", uint128.From64(7), uint128.From64(1), uint128.From64(2), uint128.From64(3), false},
		{"zero denom", uint128.From64(1), uint128.From64(1), uint128.Zero, uint128.Uint128{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MulDivFloor(tc.a, tc.b, tc.denom)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equals(tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMulDivCeil(t *testing.T) {
	got, err := MulDivCeil(uint128.From64(7), uint128.From64(1), uint128.From64(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := uint128.From64(4); !got.Equals(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAddCheckedOverflow(t *testing.T) {
	max := uint128.Max
	if _, err := AddChecked(max, uint128.From64(1)); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	sum, err := AddChecked(uint128.From64(2), uint128.From64(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := uint128.From64(5); !sum.Equals(want) {
		t.Errorf("got %v, want %v", sum, want)
	}
}

func TestSubCheckedUnderflow(t *testing.T) {
	if _, err := SubChecked(uint128.From64(1), uint128.From64(2)); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestWrappingSubAcrossWrap(t *testing.T) {
	// A growth accumulator that wrapped past uint128 max: the "after" snapshot
	// is numerically smaller than "before", but the true elapsed delta must
	// still come out positive once wrapping is applied.
	before := uint128.Max.Sub(uint128.From64(2)) // max-2
	after := uint128.From64(3)                   // wrapped around by 6
	got := WrappingSub(after, before)
	want := uint128.From64(6)
	if !got.Equals(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAddDelta(t *testing.T) {
	base := uint128.From64(100)
	pos := NewI128FromInt64(50)
	got, err := AddDelta(base, pos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := uint128.From64(150); !got.Equals(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	neg := NewI128FromInt64(-50)
	got, err = AddDelta(base, neg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := uint128.From64(50); !got.Equals(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := AddDelta(uint128.From64(10), NewI128FromInt64(-20)); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestI128AddOverflow(t *testing.T) {
	big := NewI128FromInt64(1)
	// Push big toward the signed-128 boundary via repeated doubling so the
	// final Add crosses maxI128.
	for i := 0; i < 126; i++ {
		var err error
		big, err = big.Add(big)
		if err != nil {
			t.Fatalf("unexpected overflow at step %d: %v", i, err)
		}
	}
	if _, err := big.Add(big); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow crossing the signed-128 boundary, got %v", err)
	}
}
