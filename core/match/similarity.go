// Package match aligns nodes between two storage-format trees by tag
// identity and text similarity.
package match

// Ratio returns the Ratcliff/Obershelp similarity of a and b in [0, 1]:
// 2*M/T where M is the total length of matching blocks (found by locating
// the longest common substring and recursing on the remainders) and T is
// the combined length of both strings. Two empty strings are identical
// (1.0); comparisons count runes, not bytes.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	m := matchingBlocks(ra, rb)
	return 2.0 * float64(m) / float64(total)
}

// matchingBlocks returns the summed length of all matching blocks.
func matchingBlocks(a, b []rune) int {
	ai, bi, n := longestCommonSubstring(a, b)
	if n == 0 {
		return 0
	}
	return n +
		matchingBlocks(a[:ai], b[:bi]) +
		matchingBlocks(a[ai+n:], b[bi+n:])
}

// longestCommonSubstring finds the longest run of runes common to a and b,
// returning its start in each and its length. Ties resolve to the earliest
// position in a, then in b, keeping the recursion deterministic.
func longestCommonSubstring(a, b []rune) (ai, bi, n int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// lengths[j] is the length of the common suffix ending at a[i-1], b[j-1]
	// for the previous row i-1.
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0 // lengths[j-1] from the previous row
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				run := prev + 1
				lengths[j] = run
				if run > n {
					n = run
					ai = i - run
					bi = j - run
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return ai, bi, n
}
