package bytematch

import (
	"reflect"
	"testing"
)

func TestFindAllOverlapping(t *testing.T) {
	got := FindAll([]byte("aaaa"), []byte("aa"))
	want := []int{0, 1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFindAllNoMatch(t *testing.T) {
	if got := FindAll([]byte("abcd"), []byte("xyz")); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestFindAllSingleMatch(t *testing.T) {
	got := FindAll([]byte{0x1f, 0x8b, 0x08}, []byte{0x1f, 0x8b})
	want := []int{0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
