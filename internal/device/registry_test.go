package device

import "testing"

func TestRegistryAddLookupRemove(t *testing.T) {
	r := NewRegistry()
	d := New(1, ClassKeyboard, "kbd")
	r.Add(d)

	if got := r.Lookup(1); got != d {
		t.Fatalf("expected lookup to return added device")
	}
	if r.Lookup(2) != nil {
		t.Fatalf("expected lookup of missing id to return nil")
	}

	r.Remove(1)
	if r.Lookup(1) != nil {
		t.Fatalf("expected device to be gone after remove")
	}
}

func TestRegistryLookupNonIgnored(t *testing.T) {
	r := NewRegistry()
	ignored := New(1, 0, "bogus")
	r.Add(ignored)

	if r.LookupNonIgnored(1) != nil {
		t.Fatalf("expected ignored device to be hidden from LookupNonIgnored")
	}
	if r.Lookup(1) == nil {
		t.Fatalf("expected ignored device to still be present via Lookup")
	}
}

func TestRegistryAll(t *testing.T) {
	r := NewRegistry()
	r.Add(New(1, ClassKeyboard, "a"))
	r.Add(New(2, ClassTrackball, "b"))

	if got := len(r.All()); got != 2 {
		t.Fatalf("expected 2 devices, got %d", got)
	}
	if r.Len() != 2 {
		t.Fatalf("expected Len() == 2, got %d", r.Len())
	}
}
