// Package pagination implements stateless circular index arithmetic over an
// ordered collection that is fetched fresh on every render. Indices are
// 1-based; a length of zero must be short-circuited by the caller to an
// explicit empty rendering via Empty.
package pagination

// Empty reports whether a collection of length n has nothing to paginate.
// Navigation over an empty collection must never index into it.
func Empty(n int) bool {
	return n <= 0
}

// Prev returns the index before i in a collection of length n, wrapping from
// the first element to the last.
func Prev(i, n int) int {
	if n <= 0 {
		return 0
	}
	i = Clamp(i, n)
	if i == 1 {
		return n
	}
	return i - 1
}

// Next returns the index after i in a collection of length n, wrapping from
// the last element to the first.
func Next(i, n int) int {
	if n <= 0 {
		return 0
	}
	i = Clamp(i, n)
	if i == n {
		return 1
	}
	return i + 1
}

// Clamp forces an out-of-range incoming index into [1, n]. Indices arrive
// from the callback protocol and may be stale after a deletion, so this is
// an input-validation concern handled locally rather than an error.
func Clamp(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 1 {
		return 1
	}
	if i > n {
		return n
	}
	return i
}

// AfterDelete returns a safe index to display after removing the element at
// i from a collection that had n elements: the previous element, wrapping to
// the new last index when the first element was removed. The result is 0
// when nothing remains.
func AfterDelete(i, n int) int {
	if n <= 1 {
		return 0
	}
	if i <= 1 {
		return n - 1
	}
	return i - 1
}
