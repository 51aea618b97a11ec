package scene

import "testing"

func pixelAt(frag []byte, stride, x, y int32) Color {
	off := y*stride + x*2
	return Color(uint16(frag[off]) | uint16(frag[off+1])<<8)
}

func TestRenderFillCoversWholeFragment(t *testing.T) {
	a := NewArena(4)
	h, err := a.CreateFill(0x1234)
	if err != nil {
		t.Fatalf("CreateFill: %v", err)
	}
	if err := a.AppendChild(a.Root(), h); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}
	a.Sequence()

	const width, height = 8, 4
	frag := make([]byte, width*height*2)
	a.Render(frag, width, 0, height)

	for y := int32(0); y < height; y++ {
		for x := int32(0); x < width; x++ {
			if got := pixelAt(frag, width*2, x, y); got != 0x1234 {
				t.Fatalf("pixel (%d,%d) = %#x, want 0x1234", x, y, got)
			}
		}
	}
}

func TestRenderBoxClippedToFragment(t *testing.T) {
	a := NewArena(4)
	h, err := a.CreateBox(Size{Width: 4, Height: 4}, 0xAB)
	if err != nil {
		t.Fatalf("CreateBox: %v", err)
	}
	if err := a.SetPosition(h, Point{X: 2, Y: 3}); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if err := a.AppendChild(a.Root(), h); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}
	a.Sequence()

	const width, height = 10, 4
	frag := make([]byte, width*height*2)
	// Render rows [3,7) of the screen, i.e. fragment row 0 = screen row 3,
	// which is the box's top row.
	a.Render(frag, width, 3, height)

	if got := pixelAt(frag, width*2, 2, 0); got != 0xAB {
		t.Fatalf("expected box color at (2,0), got %#x", got)
	}
	if got := pixelAt(frag, width*2, 1, 0); got != 0 {
		t.Fatalf("expected no box color outside box at (1,0), got %#x", got)
	}
}

func TestSequenceRecyclesPreviousRenderList(t *testing.T) {
	a := NewArena(8)
	h, err := a.CreateFill(1)
	if err != nil {
		t.Fatalf("CreateFill: %v", err)
	}
	if err := a.AppendChild(a.Root(), h); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}

	a.Sequence()
	firstFree := countFree(a)
	a.Sequence()
	secondFree := countFree(a)

	if firstFree != secondFree {
		t.Fatalf("render-list recycling leaked slots: free went from %d to %d across an idle frame", firstFree, secondFree)
	}
}
