package copperx

import "testing"

func TestToBaseUnit(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{1, 100000000},
		{0.5, 50000000},
		{12.34, 1234000000},
		{0.00000001, 1},
		{99.99999999, 9999999999},
	}
	for _, c := range cases {
		if got := ToBaseUnit(c.in); got != c.want {
			t.Errorf("ToBaseUnit(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFromBaseUnitRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, 99, 100000000, 1234000000, 9999999999} {
		if got := ToBaseUnit(FromBaseUnit(v)); got != v {
			t.Errorf("round trip %d gave %d", v, got)
		}
	}
}

func TestToBaseUnitString(t *testing.T) {
	got, err := ToBaseUnitString("12.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "1250000000" {
		t.Errorf("got %s, want 1250000000", got)
	}
	if _, err := ToBaseUnitString("not-a-number"); err == nil {
		t.Error("expected error for junk input")
	}
	if _, err := ToBaseUnitString("99999999999999999999"); err == nil {
		t.Error("expected error for amount beyond int64 base units")
	}
	if _, err := ToBaseUnitString("-5"); err == nil {
		t.Error("expected error for negative amount")
	}
}

func TestFormatBaseUnit(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"100000000", "1"},
		{"1250000000", "12.5"},
		{"1", "0.00000001"},
		{"0", "0"},
		{"garbage", "garbage"},
	}
	for _, c := range cases {
		if got := FormatBaseUnit(c.in); got != c.want {
			t.Errorf("FormatBaseUnit(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
