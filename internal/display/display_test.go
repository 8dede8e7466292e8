package display

import "testing"

func TestUnknown(t *testing.T) {
	p := Unknown()
	if p.Known() {
		t.Fatal("expected Unknown() to report not-known")
	}
}

func TestOrientedSize(t *testing.T) {
	p := Properties{Width: 480, Height: 800, Orientation: Rotation90}
	w, h := p.OrientedSize()
	if w != 800 || h != 480 {
		t.Fatalf("expected swapped dimensions at 90 degrees, got %d x %d", w, h)
	}

	p.Orientation = Rotation0
	w, h = p.OrientedSize()
	if w != 480 || h != 800 {
		t.Fatalf("expected unswapped dimensions at 0 degrees, got %d x %d", w, h)
	}
}
