package rotor

import (
	"math"
	"testing"
)

func TestNewRotorStartsAtZero(t *testing.T) {
	r := New()
	if r.Offset() != 0 {
		t.Fatalf("unexpected offset: %d", r.Offset())
	}
	for c := byte('A'); c <= 'Z'; c++ {
		if got := r.Map(c); got != c {
			t.Fatalf("identity mapping broken: %q -> %q", c, got)
		}
	}
}

func TestRotateClosure(t *testing.T) {
	cases := [][]int32{
		{1},
		{-1},
		{27},
		{-27, 3},
		{25, 25, 25},
		{math.MaxInt32},
		{math.MinInt32},
		{math.MinInt32, math.MaxInt32, 7},
		{-100, 4, 13, -9},
	}
	for _, seq := range cases {
		r := New()
		sum := int64(0)
		for _, n := range seq {
			r.Rotate(n)
			sum += int64(n)
		}
		want := int((sum%Size + Size) % Size)
		if r.Offset() != want {
			t.Fatalf("seq %v: offset=%d want=%d", seq, r.Offset(), want)
		}
	}
}

func TestRotateIdentities(t *testing.T) {
	for _, n := range []int32{0, 26, -26, 52, -520} {
		r := New()
		r.Rotate(5)
		r.Rotate(n)
		if r.Offset() != 5 {
			t.Fatalf("rotate(%d) changed offset to %d", n, r.Offset())
		}
	}
}

func TestRotateInverse(t *testing.T) {
	for _, n := range []int32{1, 13, 26, 1000, -7, math.MaxInt32} {
		r := New()
		r.Rotate(11)
		r.Rotate(n)
		r.Rotate(-n)
		if r.Offset() != 11 {
			t.Fatalf("rotate(%d) then rotate(%d): offset=%d", n, -n, r.Offset())
		}
	}
}

func TestMapIsBijectionAtEveryOffset(t *testing.T) {
	r := New()
	for k := 0; k < Size; k++ {
		seen := make(map[byte]bool, Size)
		for c := byte('A'); c <= 'Z'; c++ {
			out := r.Map(c)
			if out < 'A' || out > 'Z' {
				t.Fatalf("offset %d: %q mapped outside alphabet: %q", k, c, out)
			}
			if seen[out] {
				t.Fatalf("offset %d: duplicate image %q", k, out)
			}
			seen[out] = true
		}
		r.Rotate(1)
	}
}

func TestMapPassthrough(t *testing.T) {
	r := New()
	for k := 0; k < Size; k++ {
		for b := 0; b < 256; b++ {
			c := byte(b)
			if c >= 'A' && c <= 'Z' {
				continue
			}
			if got := r.Map(c); got != c {
				t.Fatalf("offset %d: %q should pass through, got %q", k, c, got)
			}
		}
		r.Rotate(1)
	}
}

func TestMapShift(t *testing.T) {
	r := New()
	r.Rotate(1)
	if got := string([]byte{r.Map('A'), r.Map('B'), r.Map('Z')}); got != "BCA" {
		t.Fatalf("unexpected shift-by-1 output: %q", got)
	}
	r.Rotate(-2)
	if got := r.Map('A'); got != 'Z' {
		t.Fatalf("unexpected mapping at offset 25: %q", got)
	}
}
