package core

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Series is a time series of ordered values
type Series[T constraints.Ordered] []T

// Values returns the underlying slice of values
func (s Series[T]) Values() []T {
	return s
}

// Length returns the number of values in the series
func (s Series[T]) Length() int {
	return len(s)
}

// At returns the value at an absolute index
func (s Series[T]) At(i int) T {
	return s[i]
}

// Last returns the value at a specified position from the end
// position 0 is the last value, 1 is the second-to-last, etc.
func (s Series[T]) Last(position int) T {
	return s[len(s)-1-position]
}

// LastValues returns a slice with the last 'size' values
// If size exceeds the length, returns the entire series
func (s Series[T]) LastValues(size int) Series[T] {
	if l := len(s); l > size {
		return s[l-size:]
	}
	return s
}

// Window returns the values in [from, to), clipped to the series bounds
func (s Series[T]) Window(from, to int) Series[T] {
	if from < 0 {
		from = 0
	}
	if to > len(s) {
		to = len(s)
	}
	if from >= to {
		return nil
	}
	return s[from:to]
}

// CrossoverAt reports whether s crosses above ref on index i: s is higher on i
// and was lower or equal on i-1
func (s Series[T]) CrossoverAt(ref Series[T], i int) bool {
	if i < 1 || i >= len(s) || i >= len(ref) {
		return false
	}
	return s[i] > ref[i] && s[i-1] <= ref[i-1]
}

// CrossunderAt reports whether s crosses below ref on index i: s is lower on i
// and was higher or equal on i-1
func (s Series[T]) CrossunderAt(ref Series[T], i int) bool {
	if i < 1 || i >= len(s) || i >= len(ref) {
		return false
	}
	return s[i] < ref[i] && s[i-1] >= ref[i-1]
}

// Crossover detects when this series crosses above the reference series on the last value
func (s Series[T]) Crossover(ref Series[T]) bool {
	return s.CrossoverAt(ref, len(s)-1)
}

// Crossunder detects when this series crosses below the reference series on the last value
func (s Series[T]) Crossunder(ref Series[T]) bool {
	return s.CrossunderAt(ref, len(s)-1)
}

// Defined reports whether every value in the float series is a finite number
func Defined(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NumDecPlaces returns the number of decimal places in a float64
func NumDecPlaces(v float64) int64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i > -1 {
		return int64(len(s) - i - 1)
	}
	return 0
}
