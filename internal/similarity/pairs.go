package similarity

import (
	"context"
	"encoding/binary"
	"math"
	"math/rand"
	"sort"

	"github.com/cespare/xxhash/v2"
)

const (
	lshBits   = 16
	lshTables = 8
)

// Cosine returns the cosine similarity of two vectors. A zero vector has
// similarity 0 with everything.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// normalized returns unit-length copies of the vectors.
func normalized(vecs []Vector) [][]float64 {
	out := make([][]float64, len(vecs))
	for i, v := range vecs {
		u := make([]float64, len(v.Values))
		var norm float64
		for j, x := range v.Values {
			u[j] = float64(x)
			norm += u[j] * u[j]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range u {
				u[j] /= norm
			}
		}
		out[i] = u
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// FindPairs returns every pair with similarity >= opts.Threshold, sorted by
// similarity descending and then by id. Vectors must be sorted by id.
func FindPairs(ctx context.Context, vecs []Vector, opts Options) ([]Pair, string, error) {
	unit := normalized(vecs)
	method := MethodExact
	var candidates [][2]int
	if len(vecs) > opts.ANNThreshold {
		method = MethodLSH
		candidates = lshCandidates(unit, opts.Seed)
	}

	pairs := []Pair{}
	keep := func(i, j int) {
		s := dot(unit[i], unit[j])
		if s >= opts.Threshold {
			pairs = append(pairs, newPair(vecs[i].ID, vecs[j].ID, s))
		}
	}

	if method == MethodExact {
		for i := range unit {
			if err := ctx.Err(); err != nil {
				return nil, method, err
			}
			for j := i + 1; j < len(unit); j++ {
				keep(i, j)
			}
		}
	} else {
		for n, c := range candidates {
			if n%4096 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, method, err
				}
			}
			keep(c[0], c[1])
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs, method, nil
}

func newPair(a, b string, s float64) Pair {
	if b < a {
		a, b = b, a
	}
	// Rounding noise can push identical vectors past 1.
	s = math.Min(1, math.Max(-1, s))
	return Pair{A: a, B: b, Similarity: s, Cluster: -1}
}

// lshCandidates buckets vectors by random-hyperplane signatures across
// several tables and returns the distinct index pairs sharing a bucket.
func lshCandidates(unit [][]float64, seed int64) [][2]int {
	if len(unit) == 0 {
		return nil
	}
	dim := len(unit[0])
	rng := rand.New(rand.NewSource(seed))

	seen := make(map[[2]int]struct{})
	var out [][2]int
	var buf [16]byte

	for t := 0; t < lshTables; t++ {
		planes := make([][]float64, lshBits)
		for b := range planes {
			planes[b] = make([]float64, dim)
			for d := range planes[b] {
				planes[b][d] = rng.NormFloat64()
			}
		}

		buckets := make(map[uint64][]int)
		var order []uint64
		for i, v := range unit {
			var sig uint64
			for b, p := range planes {
				if dot(v, p) >= 0 {
					sig |= 1 << b
				}
			}
			binary.LittleEndian.PutUint64(buf[:8], uint64(t))
			binary.LittleEndian.PutUint64(buf[8:], sig)
			key := xxhash.Sum64(buf[:])
			if _, ok := buckets[key]; !ok {
				order = append(order, key)
			}
			buckets[key] = append(buckets[key], i)
		}

		for _, key := range order {
			members := buckets[key]
			for x := 0; x < len(members); x++ {
				for y := x + 1; y < len(members); y++ {
					c := [2]int{members[x], members[y]}
					if _, ok := seen[c]; ok {
						continue
					}
					seen[c] = struct{}{}
					out = append(out, c)
				}
			}
		}
	}
	return out
}
