package dedup

import (
	"net/url"
	"strings"
)

// URLSimilar reports whether two event URLs likely point at the same event:
// same host, and the paths are identical, one contains the other, the last
// segments match, or at least two segments are shared.
func URLSimilar(a, b string) bool {
	ua, err := url.Parse(strings.TrimSpace(a))
	if err != nil {
		return false
	}
	ub, err := url.Parse(strings.TrimSpace(b))
	if err != nil {
		return false
	}
	hostA := strings.TrimPrefix(strings.ToLower(ua.Hostname()), "www.")
	hostB := strings.TrimPrefix(strings.ToLower(ub.Hostname()), "www.")
	if hostA == "" || hostA != hostB {
		return false
	}

	pathA := strings.Trim(ua.Path, "/")
	pathB := strings.Trim(ub.Path, "/")
	if pathA == pathB {
		return true
	}
	if pathA != "" && pathB != "" && (strings.Contains(pathA, pathB) || strings.Contains(pathB, pathA)) {
		return true
	}

	segA := segments(pathA)
	segB := segments(pathB)
	if len(segA) == 0 || len(segB) == 0 {
		return false
	}
	if segA[len(segA)-1] == segB[len(segB)-1] {
		return true
	}

	shared := 0
	inA := make(map[string]bool, len(segA))
	for _, s := range segA {
		inA[s] = true
	}
	for _, s := range segB {
		if inA[s] {
			shared++
			delete(inA, s)
		}
	}
	return shared >= 2
}

func segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Ratio returns the Ratcliff/Obershelp similarity of a and b in [0, 1]:
// twice the number of matching runes over the total rune count.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

// matchingRunes sums the longest common block and, recursively, the
// matches to its left and right.
func matchingRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, size := longestBlock(a, b)
	if size == 0 {
		return 0
	}
	return size + matchingRunes(a[:i], b[:j]) + matchingRunes(a[i+size:], b[j+size:])
}

// longestBlock finds the longest common substring of a and b, preferring
// the earliest start in a, then in b.
func longestBlock(a, b []rune) (int, int, int) {
	bestI, bestJ, bestSize := 0, 0, 0
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > bestSize {
					bestSize = cur[j]
					bestI, bestJ = i-cur[j], j-cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, bestSize
}
