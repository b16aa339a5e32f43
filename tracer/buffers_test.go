package tracer

import (
	"testing"

	"github.com/glintrt/glint/types"
)

func TestNewFrameBuffersValidation(t *testing.T) {
	if _, err := NewFrameBuffers(0, 16); err != ErrInvalidFrameDims {
		t.Fatalf("expected ErrInvalidFrameDims; got %v", err)
	}

	fb, err := NewFrameBuffers(4, 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(fb.Depth) != 8 {
		t.Fatalf("expected 8 depth entries; got %d", len(fb.Depth))
	}
	if len(fb.Output) != 32 {
		t.Fatalf("expected 32 output bytes; got %d", len(fb.Output))
	}
}

func TestHistorySwap(t *testing.T) {
	fb, err := NewFrameBuffers(2, 2)
	if err != nil {
		t.Fatal(err)
	}

	if &fb.HistoryRead()[0] == &fb.HistoryWrite()[0] {
		t.Fatal("expected the history read and write sides to use distinct storage")
	}

	exp := HistorySample{
		Color: types.Vec3{1, 2, 3},
		Lum:   4,
		Depth: 0.5,
		Pos:   types.Vec4{5, 6, 7, 1},
	}
	fb.HistoryWrite()[0] = exp
	fb.SwapHistory()

	if got := fb.HistoryRead()[0]; got != exp {
		t.Fatalf("expected the written history to be readable after a swap; got %v", got)
	}
}
