package perm

// Factorial returns n! (n factorial), the order of S_n.
// For n <= 1, Factorial returns 1.
//
// Note that factorials grow extremely fast: 13! = 6,227,020,800 exceeds 32-bit int.
func Factorial(n int) int {
	result := 1
	for i := 2; i <= n; i++ {
		result *= i
	}
	return result
}

// Generate returns permutations of {1, ..., n} using Heap's algorithm.
//
// If limit > 0, Generate returns at most limit permutations.
// If limit <= 0, Generate returns all n! permutations.
//
// The identity comes first; the remaining order is Heap's, not
// lexicographic. Each returned permutation is a separate allocation.
//
// For n <= 0 Generate returns nil. For n >= 13 the permutation count exceeds
// billions, so always pass a limit for large n.
func Generate(n, limit int) []Perm {
	if n <= 0 {
		return nil
	}

	p := Identity(n)
	state := make([]int, n)

	capacity := limit
	if capacity <= 0 || n <= 12 {
		capacity = Factorial(min(n, 12))
		if limit > 0 {
			capacity = min(capacity, limit)
		}
	}
	result := make([]Perm, 0, capacity)
	result = append(result, p.Clone())

	for i := 0; i < n && (limit <= 0 || len(result) < limit); {
		if state[i] < i {
			if i&1 == 0 {
				p[0], p[i] = p[i], p[0]
			} else {
				p[state[i]], p[i] = p[i], p[state[i]]
			}
			result = append(result, p.Clone())
			state[i]++
			i = 0
		} else {
			state[i] = 0
			i++
		}
	}
	return result
}
