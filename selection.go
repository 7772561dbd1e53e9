package lapstat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Selection is a set of 1-indexed lap numbers. The empty selection selects
// every lap.
type Selection map[int]struct{}

// ParseSelection reads lap numbers from tokens, each of which may itself hold
// several numbers separated by commas or whitespace.
func ParseSelection(tokens []string) (Selection, error) {
	sel := Selection{}
	for _, tok := range tokens {
		fields := strings.FieldsFunc(tok, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
		for _, f := range fields {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("invalid lap number %q", f)
			}
			if n < 1 {
				return nil, fmt.Errorf("invalid lap number %d: laps start at 1", n)
			}
			sel[n] = struct{}{}
		}
	}
	return sel, nil
}

// Contains reports whether lap n is selected.
func (s Selection) Contains(n int) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[n]
	return ok
}

// Laps returns the selected lap numbers in ascending order.
func (s Selection) Laps() []int {
	out := make([]int, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Missing returns selected lap numbers beyond a document of total laps.
func (s Selection) Missing(total int) []int {
	var out []int
	for _, n := range s.Laps() {
		if n > total {
			out = append(out, n)
		}
	}
	return out
}

func (s Selection) String() string {
	if len(s) == 0 {
		return "all"
	}
	laps := s.Laps()
	parts := make([]string, len(laps))
	for i, n := range laps {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
