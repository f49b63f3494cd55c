package errors

// MaxRank is the largest n accepted anywhere in the module. One-line
// notation stays unambiguous for larger n, but nothing beyond this is
// enumerable and the bound keeps request payloads small.
const MaxRank = 64

// ValidateN validates the size n of the symmetric group S_n.
//
// Validation rules:
//   - n must be at least 1 (S_1 is the trivial group)
//   - n must not exceed MaxRank
func ValidateN(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidInput, "n must be at least 1, got %d", n)
	}
	if n > MaxRank {
		return New(ErrCodeInvalidInput, "n must be at most %d, got %d", MaxRank, n)
	}
	return nil
}

// ValidateGenerator validates a generator index for S_n.
// Index 0 is the placeholder identity and is always accepted.
func ValidateGenerator(i, n int) error {
	if i < 0 || i >= n {
		return New(ErrCodeInvalidGenerator, "generator %d not between 0 and %d", i, n-1)
	}
	return nil
}

// ValidateBudget validates a positive resource limit read from configuration.
func ValidateBudget(name string, value int) error {
	if value <= 0 {
		return New(ErrCodeInvalidInput, "%s must be positive, got %d", name, value)
	}
	return nil
}
