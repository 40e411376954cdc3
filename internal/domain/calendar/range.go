package calendar

import (
	"fmt"
	"sort"

	"shareit/internal/domain/shared/apperr"
)

// MaxSelectionDays bounds a single selection, and so a single booking.
const MaxSelectionDays = 366

var ErrSelectionTooLong = apperr.Validation(fmt.Sprintf("a selection spans at most %d days", MaxSelectionDays))

// Between returns every day from the earlier of a and b to the later, inclusive and in order.
func Between(a, b Day) []Day {
	if b < a {
		a, b = b, a
	}
	out := make([]Day, 0, int(b-a)+1)
	for d := a; d <= b; d++ {
		out = append(out, d)
	}
	return out
}

// ExpandRange parses both endpoints and expands them with Between, so a selection dragged
// backwards yields the same days as a forward one.
func ExpandRange(start, end string) ([]Day, error) {
	from, err := ParseDay(start)
	if err != nil {
		return nil, fmt.Errorf("range start: %w", err)
	}
	to, err := ParseDay(end)
	if err != nil {
		return nil, fmt.Errorf("range end: %w", err)
	}
	if span := int64(to) - int64(from); span >= MaxSelectionDays || -span >= MaxSelectionDays {
		return nil, ErrSelectionTooLong
	}
	return Between(from, to), nil
}

// ParseDays parses ISO strings into a normalized day list.
func ParseDays(values []string) ([]Day, error) {
	days := make([]Day, 0, len(values))
	for _, v := range values {
		d, err := ParseDay(v)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return Normalize(days), nil
}

// Normalize sorts days chronologically and drops duplicates. The input is not modified.
func Normalize(days []Day) []Day {
	if len(days) == 0 {
		return nil
	}
	out := make([]Day, len(days))
	copy(out, days)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

func Strings(days []Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}

// Window is an inclusive bounding range of bookable days. A zero bound is open.
type Window struct {
	From *Day
	To   *Day
}

func NewWindow(from, to string) (Window, error) {
	var w Window
	if from != "" {
		d, err := ParseDay(from)
		if err != nil {
			return Window{}, err
		}
		w.From = &d
	}
	if to != "" {
		d, err := ParseDay(to)
		if err != nil {
			return Window{}, err
		}
		w.To = &d
	}
	if w.From != nil && w.To != nil && *w.To < *w.From {
		return Window{}, fmt.Errorf("%w: window ends before it starts", ErrInvalidRange)
	}
	return w, nil
}

func (w Window) Contains(d Day) bool {
	if w.From != nil && d < *w.From {
		return false
	}
	if w.To != nil && d > *w.To {
		return false
	}
	return true
}

func (w Window) IsZero() bool {
	return w.From == nil && w.To == nil
}
