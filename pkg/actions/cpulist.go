package actions

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParseCPUList parses a core list such as "0,2", "0-3" or "0,2-3" and checks
// every index against [0, cores). Any invalid part rejects the whole list.
// The result is sorted and free of duplicates.
func ParseCPUList(s string, cores int) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty core list")
	}
	if cores <= 0 {
		return nil, fmt.Errorf("unknown core count")
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, err := parseCPURange(part)
		if err != nil {
			return nil, err
		}
		for c := lo; c <= hi; c++ {
			if c < 0 || c >= cores {
				return nil, fmt.Errorf("invalid core index %d (valid 0-%d)", c, cores-1)
			}
			seen[c] = struct{}{}
		}
	}

	out := make([]int, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Ints(out)
	return out, nil
}

func parseCPURange(part string) (int, int, error) {
	if part == "" {
		return 0, 0, fmt.Errorf("empty entry in core list")
	}
	first, last, isRange := strings.Cut(part, "-")
	lo, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid core %q", part)
	}
	if !isRange {
		return lo, lo, nil
	}
	hi, err := strconv.Atoi(strings.TrimSpace(last))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid core range %q", part)
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("core range %q runs backwards", part)
	}
	return lo, hi, nil
}
