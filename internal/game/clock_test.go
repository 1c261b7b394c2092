package game

import "testing"

func TestTickDiffWraparound(t *testing.T) {
	cases := []struct {
		name string
		a, b Tick
		want int32
	}{
		{"simple forward", 100, 40, 60},
		{"simple backward", 40, 100, -60},
		{"equal", 7, 7, 0},
		{"wrap forward", MakeTick(5), MakeTick(0x7FFFFFFE), 7},
		{"wrap backward", MakeTick(0x7FFFFFFE), MakeTick(5), -7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TickDiff(tc.a, tc.b); got != tc.want {
				t.Errorf("TickDiff(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestTickGT(t *testing.T) {
	if !TickGT(10, 5) {
		t.Error("10 should be after 5")
	}
	if TickGT(5, 10) {
		t.Error("5 should not be after 10")
	}
	if TickGT(5, 5) {
		t.Error("a tick is not after itself")
	}
	if !TickGT(MakeTick(3), MakeTick(0x7FFFFFF0)) {
		t.Error("a small tick just past the wrap should be after one just before it")
	}
}

func TestSmallTickComparisons(t *testing.T) {
	if !SmallTickGTE(100, 100) {
		t.Error("equal small ticks compare GTE")
	}
	if !SmallTickGTE(105, 100) {
		t.Error("105 should be at or after 100")
	}
	if SmallTickGTE(100, 105) {
		t.Error("100 should be before 105")
	}
	// 15-bit wraparound: 2 is newer than 0x7FFE.
	if !SmallTickGTE(2, 0x7FFE) {
		t.Error("small tick comparison should wrap at 15 bits")
	}
	if got := SmallTickDiff(2, 0x7FFE); got != 4 {
		t.Errorf("SmallTickDiff(2, 0x7FFE) = %d, want 4", got)
	}
}

func TestMakeTickMasks(t *testing.T) {
	if got := MakeTick(0xFFFFFFFF); got != 0x7FFFFFFF {
		t.Errorf("MakeTick should mask to 31 bits, got %#x", got)
	}
}
