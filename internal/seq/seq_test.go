package seq

import "testing"

func TestPushGet(t *testing.T) {
	s := New[int]()
	for i := 0; i < 100; i++ {
		s.Push(i)
	}
	if s.Len() != 100 {
		t.Fatalf("len = %d, want 100", s.Len())
	}
	for i := 0; i < 100; i++ {
		v, ok := s.Get(i)
		if !ok || v != i {
			t.Fatalf("Get(%d) = %d, %v", i, v, ok)
		}
	}
	if _, ok := s.Get(100); ok {
		t.Error("Get past end succeeded")
	}
	if _, ok := s.Get(-1); ok {
		t.Error("Get(-1) succeeded")
	}
}

func TestPopPreservesOrder(t *testing.T) {
	s := New[string]()
	for _, v := range []string{"a", "b", "c", "d"} {
		s.Push(v)
	}
	v, ok := s.Pop(1)
	if !ok || v != "b" {
		t.Fatalf("Pop(1) = %q, %v", v, ok)
	}
	want := []string{"a", "c", "d"}
	if s.Len() != len(want) {
		t.Fatalf("len = %d, want %d", s.Len(), len(want))
	}
	for i, w := range want {
		if got := s.At(i); got != w {
			t.Errorf("At(%d) = %q, want %q", i, got, w)
		}
	}
	if _, ok := s.Pop(3); ok {
		t.Error("Pop past end succeeded")
	}
}

func TestShrinkToFit(t *testing.T) {
	s := New[int]()
	for i := 0; i < 50; i++ {
		s.Push(i)
	}
	for s.Len() > 5 {
		s.Pop(0)
	}
	s.ShrinkToFit()
	if s.Len() != 5 {
		t.Fatalf("len = %d, want 5", s.Len())
	}
	// Elements survive the reallocation.
	for i := 0; i < 5; i++ {
		if got := s.At(i); got != 45+i {
			t.Errorf("At(%d) = %d, want %d", i, got, 45+i)
		}
	}
}
