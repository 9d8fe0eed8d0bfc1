package intervalset

import (
	"errors"
	"testing"
)

func TestAddNonOverlapping(t *testing.T) {
	s := New(false, false)
	if err := s.Add(BeginLength(0, 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(BeginLength(10, 10)); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestAddOverlappingRejected(t *testing.T) {
	s := New(false, false)
	if err := s.Add(BeginLength(0, 10)); err != nil {
		t.Fatal(err)
	}
	err := s.Add(BeginLength(5, 10))
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("got %v, want ErrOverlap", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after rejected add", s.Len())
	}
}

func TestAddIdenticalRejected(t *testing.T) {
	s := New(true, false)
	if err := s.Add(BeginLength(0, 10)); err != nil {
		t.Fatal(err)
	}
	err := s.Add(BeginLength(0, 10))
	if !errors.Is(err, ErrIdentical) {
		t.Fatalf("got %v, want ErrIdentical", err)
	}
}

func TestAllowOverlapping(t *testing.T) {
	s := New(true, true)
	if err := s.Add(BeginLength(0, 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(BeginLength(0, 10)); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}
