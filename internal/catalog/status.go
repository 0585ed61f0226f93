package catalog

import (
	"sort"
	"strconv"
	"strings"
)

// StatusSet is an immutable set of HTTP status codes treated as a pass.
type StatusSet struct {
	codes map[int]struct{}
}

func NewStatusSet(codes ...int) StatusSet {
	set := StatusSet{codes: make(map[int]struct{}, len(codes))}
	for _, c := range codes {
		set.codes[c] = struct{}{}
	}
	return set
}

func (s StatusSet) Contains(code int) bool {
	_, ok := s.codes[code]
	return ok
}

func (s StatusSet) Len() int {
	return len(s.codes)
}

// Codes returns the members in ascending order.
func (s StatusSet) Codes() []int {
	out := make([]int, 0, len(s.codes))
	for c := range s.codes {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

func (s StatusSet) String() string {
	codes := s.Codes()
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
