package arena

import "testing"

func TestListAppendAndRemoveMiddle(t *testing.T) {
	l := NewList()
	l.Append(1)
	l.Append(2)
	l.Append(3)

	if l.Len() != 3 {
		t.Fatalf("expected length 3, got %d", l.Len())
	}

	l.Remove(2)

	var got []Handle
	l.Each(func(h Handle) { got = append(got, h) })

	want := []Handle{1, 3}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v after removing middle element, got %v", want, got)
	}

	if l.Tail() != 3 {
		t.Errorf("expected tail 3, got %d", l.Tail())
	}
}

func TestListEachSafeAllowsRemovalOfCurrent(t *testing.T) {
	l := NewList()
	for _, h := range []Handle{1, 2, 3, 4} {
		l.Append(h)
	}

	var visited []Handle
	l.EachSafe(func(h Handle) {
		visited = append(visited, h)
		if h == 2 {
			l.Remove(h)
		}
	})

	if len(visited) != 4 {
		t.Fatalf("expected to visit all 4 original elements, got %v", visited)
	}
	if l.Len() != 3 {
		t.Fatalf("expected 3 elements remaining, got %d", l.Len())
	}
}

func TestDoublyLinkedPrependAndReverse(t *testing.T) {
	d := NewDoublyLinked()
	d.Append(2)
	d.Append(3)
	d.Prepend(1)

	var forward []Handle
	d.Each(func(h Handle) { forward = append(forward, h) })
	if len(forward) != 3 || forward[0] != 1 || forward[2] != 3 {
		t.Fatalf("unexpected forward order: %v", forward)
	}

	var backward []Handle
	d.EachReverse(func(h Handle) { backward = append(backward, h) })
	if len(backward) != 3 || backward[0] != 3 || backward[2] != 1 {
		t.Fatalf("unexpected reverse order: %v", backward)
	}
}

func TestArrayRemoveRelocatesLastElement(t *testing.T) {
	a := NewArray()
	a.Append(10)
	a.Append(20)
	a.Append(30)

	a.Remove(10)

	if a.Len() != 2 {
		t.Fatalf("expected length 2, got %d", a.Len())
	}
	if a.IndexOf(30) != 0 {
		t.Fatalf("expected last element relocated to freed slot, got index %d", a.IndexOf(30))
	}
	if a.IndexOf(10) != -1 {
		t.Fatalf("removed element should no longer be indexed")
	}
}

func TestOneToOneDetachesPreviousOccupant(t *testing.T) {
	var slot OneToOne

	prev := slot.Set(1)
	if prev != NoHandle {
		t.Fatalf("expected no previous occupant, got %d", prev)
	}

	prev = slot.Set(2)
	if prev != 1 {
		t.Fatalf("expected previous occupant 1, got %d", prev)
	}
	if slot.Get() != 2 {
		t.Fatalf("expected current occupant 2, got %d", slot.Get())
	}
}

func TestHeapqPopsInOrder(t *testing.T) {
	h := NewHeapq(func(a, b Handle) bool { return a < b })
	for _, v := range []Handle{5, 1, 4, 2, 3} {
		h.Push(v)
	}

	var got []Handle
	for h.Len() > 0 {
		got = append(got, h.Pop())
	}

	want := []Handle{1, 2, 3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected sorted pop order %v, got %v", want, got)
		}
	}
}

func TestHashedClassFindsStructuralDuplicate(t *testing.T) {
	type payload struct{ w int }
	hc := NewHashedClass[int, payload](func(a, b payload) bool { return a.w == b.w })

	hc.Insert(32, 1, payload{w: 32})

	if h, ok := hc.Find(32, payload{w: 32}); !ok || h != 1 {
		t.Fatalf("expected structural duplicate to be found at handle 1, got %d, %v", h, ok)
	}
	if _, ok := hc.Find(32, payload{w: 64}); ok {
		t.Fatalf("did not expect a match for a distinct payload under the same hash key")
	}
}
