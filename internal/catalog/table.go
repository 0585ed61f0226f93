package catalog

import (
	"math"
	"net/http"
	"sort"
	"strings"
)

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// Bucket is the half-open cumulative-weight range owned by one request type.
type Bucket struct {
	Name  string
	Start int
	End   int
}

// WeightTable maps draws in [0, Total) to request types. It is built once and
// read concurrently by every virtual user without locking.
type WeightTable struct {
	types  []RequestType
	prefix []int
	total  int
}

// NewWeightTable validates the catalog and computes prefix sums in input order.
func NewWeightTable(types []RequestType) (*WeightTable, error) {
	cerr := &ConfigError{}
	if len(types) == 0 {
		cerr.add("catalog must define at least one request type")
		return nil, cerr
	}

	seen := make(map[string]int, len(types))
	total, overflowed := 0, false
	for idx, rt := range types {
		name := strings.TrimSpace(rt.Name)
		if name == "" {
			cerr.add("types[%d]: name is required", idx)
		} else if prev, ok := seen[name]; ok {
			cerr.add("types[%d]: duplicate name %q also defined at index %d", idx, name, prev)
		} else {
			seen[name] = idx
		}
		if rt.Weight <= 0 {
			cerr.add("types[%d] %s: weight must be > 0, got %d", idx, name, rt.Weight)
		} else if !overflowed {
			if total > math.MaxInt-rt.Weight {
				cerr.add("types[%d] %s: total weight overflows", idx, name)
				overflowed = true
			} else {
				total += rt.Weight
			}
		}
		if rt.Acceptable.Len() == 0 {
			cerr.add("types[%d] %s: at least one acceptable status is required", idx, name)
		}
		if !supportedMethods[rt.Method] {
			cerr.add("types[%d] %s: unsupported method %q", idx, name, rt.Method)
		}
		if !strings.HasPrefix(rt.Path, "/") {
			cerr.add("types[%d] %s: path must start with /", idx, name)
		}
	}
	if err := cerr.orNil(); err != nil {
		return nil, err
	}

	table := &WeightTable{
		types:  append([]RequestType(nil), types...),
		prefix: make([]int, len(types)),
	}
	for i, rt := range table.types {
		table.total += rt.Weight
		table.prefix[i] = table.total
	}
	return table, nil
}

func (t *WeightTable) Total() int {
	return t.total
}

func (t *WeightTable) Len() int {
	return len(t.types)
}

// Pick returns the first request type whose bucket contains v. v must lie in
// [0, Total).
func (t *WeightTable) Pick(v int) *RequestType {
	i := sort.Search(len(t.prefix), func(i int) bool { return t.prefix[i] > v })
	if i >= len(t.types) {
		i = len(t.types) - 1
	}
	return &t.types[i]
}

// Types returns the request types in table order.
func (t *WeightTable) Types() []RequestType {
	return append([]RequestType(nil), t.types...)
}

// Lookup finds a request type by name.
func (t *WeightTable) Lookup(name string) (*RequestType, bool) {
	for i := range t.types {
		if t.types[i].Name == name {
			return &t.types[i], true
		}
	}
	return nil, false
}

func (t *WeightTable) Buckets() []Bucket {
	buckets := make([]Bucket, len(t.types))
	start := 0
	for i, rt := range t.types {
		buckets[i] = Bucket{Name: rt.Name, Start: start, End: t.prefix[i]}
		start = t.prefix[i]
	}
	return buckets
}

// Share returns the configured probability of each request type.
func (t *WeightTable) Share() map[string]float64 {
	out := make(map[string]float64, len(t.types))
	for _, rt := range t.types {
		out[rt.Name] = float64(rt.Weight) / float64(t.total)
	}
	return out
}
