package dice

import (
	"errors"
	"slices"
	"testing"
)

func TestRerollFirstOne_FirstPositionalOne(t *testing.T) {
	pool := []int{3, 1, 5, 1}
	src := &fixedSource{values: []int{7}} // face 8

	v, ok := RerollFirstOne(pool, src)
	if !ok {
		t.Fatal("expected a 1 to be rerolled")
	}
	if v != 8 {
		t.Errorf("rerolled face = %d, want 8", v)
	}
	if want := []int{3, 8, 5, 1}; !slices.Equal(pool, want) {
		t.Errorf("pool = %v, want %v (only the first 1 changes, order kept)", pool, want)
	}
}

func TestRerollFirstOne_NoOne(t *testing.T) {
	pool := []int{7, 3, 2}
	src := &fixedSource{values: []int{0}}

	if _, ok := RerollFirstOne(pool, src); ok {
		t.Error("reported a reroll on a pool without 1")
	}
	if src.calls != 0 {
		t.Errorf("consumed %d random draws without a target", src.calls)
	}
	if want := []int{7, 3, 2}; !slices.Equal(pool, want) {
		t.Errorf("pool changed to %v", pool)
	}
}

func TestReroll_SortsAndLeavesInputAlone(t *testing.T) {
	in := []int{4, 1, 1, 9}
	src := &fixedSource{values: []int{5}} // face 6

	out, v, err := Reroll(in, src)
	if err != nil {
		t.Fatalf("Reroll: %v", err)
	}
	if v != 6 {
		t.Errorf("rerolled face = %d, want 6", v)
	}
	if want := []int{9, 6, 4, 1}; !slices.Equal(out, want) {
		t.Errorf("Reroll = %v, want %v", out, want)
	}
	if want := []int{4, 1, 1, 9}; !slices.Equal(in, want) {
		t.Errorf("input modified to %v", in)
	}
}

func TestReroll_NoTarget(t *testing.T) {
	for _, pool := range [][]int{{7, 3, 2}, {}, nil} {
		out, _, err := Reroll(pool, NewSeededSource(1))
		if !errors.Is(err, ErrNoRerollTarget) {
			t.Errorf("Reroll(%v) error = %v, want ErrNoRerollTarget", pool, err)
		}
		if out != nil {
			t.Errorf("Reroll(%v) returned a pool on failure: %v", pool, out)
		}
	}
}
