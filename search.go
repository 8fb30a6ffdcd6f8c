package stocks

// This file implements generic searches over a monotonic predicate: on the
// search interval the predicate is true up to some index and false ever
// after. They find that last true index without enumerating the interval.

// LinearSearch scans upward from zero and returns the last i for which pred
// is true. The boolean is false when pred(0) is already false, or when maxN
// is exceeded without finding the boundary.
func LinearSearch(pred func(int) bool, maxN int) (int, bool) {
	for i := 0; ; i++ {
		if i-1 == maxN {
			return 0, false
		}
		if !pred(i) {
			if i == 0 {
				return 0, false
			}
			return i - 1, true
		}
	}
}

// BinarySearch returns the last n in [minN, maxN] for which pred is true.
// The boolean is false when no such n exists.
//
// pred must be monotonic on [minN, maxN+1]: always true at or before some
// index and always false after it, with pred(maxN+1) implicitly false.
// A range with minN > maxN is a programming error and panics.
func BinarySearch(pred func(int) bool, minN, maxN int) (int, bool) {
	if minN > maxN {
		panic("invalid search range: minN > maxN")
	}

	lastGood := 0
	found := false
	a, b := minN, maxN
	for {
		middle := (a + b) / 2
		if pred(middle) {
			lastGood = middle
			found = true
			a = middle + 1
		} else {
			b = middle - 1
		}

		if (found && lastGood == b) || a > b {
			break
		}
	}
	return lastGood, found
}

// ExponentialBinarySearch returns the last n >= minN for which pred is true,
// for an unbounded monotonic predicate. It doubles its guess until pred
// fails, then binary searches the bracketed interval, so large answers are
// found in O(log n) probes instead of a scan from zero.
//
// The first guess is always minN; secondGuess sets the minimum second value
// to try and must be greater than minN. The boolean is false when pred(minN)
// is already false.
func ExponentialBinarySearch(pred func(int) bool, minN, secondGuess int) (int, bool) {
	if minN < 0 {
		panic("minimum n to try is negative")
	}
	if secondGuess <= minN {
		panic("secondGuess is not higher than minN")
	}

	prev := 0
	havePrev := false
	i := minN
	for pred(i) {
		prev = i
		havePrev = true
		i = max(i*2, secondGuess)
	}

	// If the very first probe failed there is no n at all.
	if i == minN {
		return 0, false
	}

	if i == prev+1 {
		// The bracket is empty; prev is the last known-true index.
		return prev, true
	}

	result, ok := BinarySearch(pred, prev+1, i-1)
	if !ok {
		// We already know that pred(prev) is true.
		if !havePrev {
			return 0, false
		}
		return prev, true
	}
	return result, true
}
