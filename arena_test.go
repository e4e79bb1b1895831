package chainmap

import "testing"

func TestArenaRecycles(t *testing.T) {
	var a arena[int]

	r1 := a.alloc()
	r2 := a.alloc()
	r3 := a.alloc()
	if r1 == noRef || r2 == noRef || r3 == noRef {
		t.Fatal("alloc returned the nil ref")
	}
	if a.live != 3 || len(a.nodes) != 3 {
		t.Fatalf("Expected 3 live nodes, got live=%d len=%d", a.live, len(a.nodes))
	}

	a.at(r2).entry = Entry[int]{Key: "x", Value: 9}
	a.at(r2).next = r3
	a.release(r2)
	if a.at(r2).entry.Key != "" {
		t.Error("release did not zero the entry")
	}

	r4 := a.alloc()
	if r4 != r2 {
		t.Errorf("Expected freelist to hand back %d, got %d", r2, r4)
	}
	if a.at(r4).next != noRef {
		t.Error("Recycled node still linked")
	}
	if len(a.nodes) != 3 || a.live != 3 || a.idle != 0 {
		t.Errorf("Unexpected arena state: len=%d live=%d idle=%d", len(a.nodes), a.live, a.idle)
	}

	a.release(r1)
	a.release(r3)
	if a.alloc() != r3 || a.alloc() != r1 {
		t.Error("Freelist is not LIFO")
	}

	a.reset()
	if a.live != 0 || a.free != noRef || a.nodes != nil {
		t.Error("reset left state behind")
	}
}

func TestCollides(t *testing.T) {
	tbl, err := New[int](4, func(int, string) int { return 0 })
	if err != nil {
		t.Fatal(err)
	}
	s := &tbl.slots[0]

	if tbl.collides(s, "foo") {
		t.Error("Empty slot reported a collision")
	}
	if err := tbl.Put("foo", 1); err != nil {
		t.Fatal(err)
	}
	if tbl.collides(s, "foo") {
		t.Error("Matching key reported a collision")
	}
	if !tbl.collides(s, "bar") {
		t.Error("Different key did not collide")
	}
}
