// Package intervalset tracks a set of half-open byte ranges [begin,end)
// discovered within a file, rejecting additions that overlap or
// duplicate existing entries when the set is configured to forbid it.
// The unpacker driver uses one interval set per input file to make sure
// the same bytes are never carved or extracted twice by two different
// classifiers.
package intervalset

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverlap is returned by Add when the new interval overlaps an
// existing one and the set disallows overlapping intervals.
var ErrOverlap = errors.New("intervalset: overlapping interval")

// ErrIdentical is returned by Add when the new interval exactly matches
// an existing one and the set disallows identical intervals.
var ErrIdentical = errors.New("intervalset: identical interval")

// Interval is a half-open byte range [Begin, End).
type Interval struct {
	Begin, End int64
}

// BeginLength builds an Interval from a start offset and a length.
func BeginLength(begin, length int64) Interval {
	return Interval{Begin: begin, End: begin + length}
}

func (iv Interval) overlaps(other Interval) bool {
	return iv.Begin < other.End && other.Begin < iv.End
}

func (iv Interval) identical(other Interval) bool {
	return iv.Begin == other.Begin && iv.End == other.End
}

// Set is a collection of non-overlapping (unless configured otherwise)
// intervals, kept sorted by Begin for binary-search lookups.
type Set struct {
	allowOverlapping bool
	allowIdentical   bool
	items            []Interval
}

// New creates an empty set. allowOverlapping and allowIdentical relax
// the corresponding constraint on Add; the unpacker driver runs with
// both false.
func New(allowOverlapping, allowIdentical bool) *Set {
	return &Set{allowOverlapping: allowOverlapping, allowIdentical: allowIdentical}
}

// Add inserts iv into the set, keeping it sorted by Begin. It returns
// ErrOverlap or ErrIdentical if the constraint is violated and the set
// was not configured to allow it; the set is left unchanged in that
// case.
func (s *Set) Add(iv Interval) error {
	if iv.End <= iv.Begin {
		return fmt.Errorf("intervalset: empty or inverted interval [%d,%d)", iv.Begin, iv.End)
	}

	idx := sort.Search(len(s.items), func(i int) bool { return s.items[i].Begin >= iv.Begin })

	if !s.allowIdentical {
		if idx < len(s.items) && s.items[idx].identical(iv) {
			return ErrIdentical
		}
		if idx > 0 && s.items[idx-1].identical(iv) {
			return ErrIdentical
		}
	}

	if !s.allowOverlapping {
		if idx < len(s.items) && s.items[idx].overlaps(iv) {
			return ErrOverlap
		}
		if idx > 0 && s.items[idx-1].overlaps(iv) {
			return ErrOverlap
		}
	}

	s.items = append(s.items, Interval{})
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = iv
	return nil
}

// All returns the intervals currently in the set, in ascending order.
func (s *Set) All() []Interval {
	out := make([]Interval, len(s.items))
	copy(out, s.items)
	return out
}

// Len reports how many intervals are in the set.
func (s *Set) Len() int { return len(s.items) }
