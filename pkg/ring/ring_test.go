package ring

import "testing"

func TestPushAndNewest(t *testing.T) {
	b := New[int](3)

	b.Push(1)
	b.Push(2)
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}

	got := b.Newest(0)
	if len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Errorf("Newest = %v, want [2 1]", got)
	}
}

func TestEvictionAtCapacity(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 5; i++ {
		b.Push(i)
	}

	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}

	got := b.Newest(0)
	want := []int{5, 4, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Newest = %v, want %v", got, want)
			break
		}
	}
}

func TestNewestLimit(t *testing.T) {
	b := New[string](10)
	b.Push("a")
	b.Push("b")
	b.Push("c")

	got := b.Newest(2)
	if len(got) != 2 || got[0] != "c" || got[1] != "b" {
		t.Errorf("Newest(2) = %v, want [c b]", got)
	}

	// Limit above size returns everything
	if got := b.Newest(50); len(got) != 3 {
		t.Errorf("Newest(50) returned %d entries, want 3", len(got))
	}
}

func TestMinimumCapacity(t *testing.T) {
	b := New[int](0)
	b.Push(1)
	b.Push(2)
	if b.Len() != 1 {
		t.Errorf("Len = %d, want 1", b.Len())
	}
	if got := b.Newest(0); got[0] != 2 {
		t.Errorf("expected newest entry 2, got %v", got)
	}
}
