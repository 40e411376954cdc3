package calendar

import "sort"

// Set is an unordered collection of days.
type Set map[Day]struct{}

func NewSet(days ...Day) Set {
	s := make(Set, len(days))
	s.Add(days...)
	return s
}

func (s Set) Add(days ...Day) {
	for _, d := range days {
		s[d] = struct{}{}
	}
}

func (s Set) Has(d Day) bool {
	_, ok := s[d]
	return ok
}

func (s Set) Len() int { return len(s) }

// Union adds every day of other into s.
func (s Set) Union(other Set) {
	for d := range other {
		s[d] = struct{}{}
	}
}

// Intersect returns the days of candidate that are in s, in chronological order.
func (s Set) Intersect(candidate []Day) []Day {
	var hits []Day
	for _, d := range candidate {
		if s.Has(d) {
			hits = append(hits, d)
		}
	}
	return Normalize(hits)
}

// Overlaps reports whether any candidate day is in s.
func (s Set) Overlaps(candidate []Day) bool {
	for _, d := range candidate {
		if s.Has(d) {
			return true
		}
	}
	return false
}

func (s Set) Sorted() []Day {
	out := make([]Day, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
