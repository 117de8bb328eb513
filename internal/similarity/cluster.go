package similarity

import (
	"context"
	"math"
	"math/rand"
)

const (
	maxIterations  = 50
	silhouetteSize = 500
)

// Clustering is a total, disjoint assignment of vectors to clusters.
type Clustering struct {
	K          int
	Labels     []int // cluster of each input vector
	Silhouette float64
}

// ChooseK returns the number of clusters for n vectors: ceil(sqrt n) capped
// at maxClusters, never more than n.
func ChooseK(n, maxClusters int) int {
	if n == 0 {
		return 0
	}
	k := int(math.Ceil(math.Sqrt(float64(n))))
	if k > maxClusters {
		k = maxClusters
	}
	if k > n {
		k = n
	}
	return max(k, 1)
}

// KMeans partitions vectors with spherical k-means seeded by k-means++.
// Identical input and seed give identical labels. Cluster ids are
// renumbered in order of each cluster's first member.
func KMeans(ctx context.Context, vecs []Vector, opts Options) (*Clustering, error) {
	n := len(vecs)
	if n == 0 {
		return &Clustering{Labels: []int{}}, nil
	}
	unit := normalized(vecs)

	if n <= opts.ClusterHeuristicThreshold {
		k := ChooseK(n, opts.MaxClusters)
		labels, err := kmeans(ctx, unit, k, opts.Seed)
		if err != nil {
			return nil, err
		}
		k = distinct(labels)
		return &Clustering{K: k, Labels: labels, Silhouette: silhouette(unit, labels, k, opts.Seed)}, nil
	}

	hi := min(int(math.Sqrt(float64(n))), opts.MaxClusters)
	if hi < 2 {
		hi = min(2, n)
	}
	var best *Clustering
	for k := min(2, hi); k <= hi; k++ {
		labels, err := kmeans(ctx, unit, k, opts.Seed)
		if err != nil {
			return nil, err
		}
		got := distinct(labels)
		s := silhouette(unit, labels, got, opts.Seed)
		if best == nil || s > best.Silhouette {
			best = &Clustering{K: got, Labels: labels, Silhouette: s}
		}
	}
	return best, nil
}

func kmeans(ctx context.Context, unit [][]float64, k int, seed int64) ([]int, error) {
	rng := rand.New(rand.NewSource(seed))
	centroids := seedCentroids(unit, k, rng)
	labels := make([]int, len(unit))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changed := false
		for i, v := range unit {
			c := nearest(v, centroids)
			if c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
		centroids = recompute(unit, labels, centroids)
	}
	return canonical(labels), nil
}

// seedCentroids picks k starting points with k-means++: each next centre
// is drawn with probability proportional to its cosine distance from the
// closest centre so far.
func seedCentroids(unit [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(unit[rng.Intn(len(unit))]))

	dist := make([]float64, len(unit))
	for len(centroids) < k {
		var total float64
		for i, v := range unit {
			d := 1 - dot(v, centroids[nearest(v, centroids)])
			dist[i] = d * d
			total += dist[i]
		}
		next := 0
		if total > 0 {
			r := rng.Float64() * total
			for i, d := range dist {
				if d == 0 {
					continue
				}
				next = i
				r -= d
				if r <= 0 {
					break
				}
			}
		} else {
			// Every point coincides with a centre; take the first unused.
			next = len(centroids) % len(unit)
		}
		centroids = append(centroids, clone(unit[next]))
	}
	return centroids
}

func nearest(v []float64, centroids [][]float64) int {
	best, bestSim := 0, math.Inf(-1)
	for c, centre := range centroids {
		if s := dot(v, centre); s > bestSim {
			best, bestSim = c, s
		}
	}
	return best
}

// recompute sets each centroid to the normalised mean of its members. An
// emptied cluster takes over the point farthest from its own centroid.
func recompute(unit [][]float64, labels []int, old [][]float64) [][]float64 {
	dim := len(unit[0])
	sums := make([][]float64, len(old))
	counts := make([]int, len(old))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, v := range unit {
		c := labels[i]
		counts[c]++
		for d, x := range v {
			sums[c][d] += x
		}
	}

	for c := range sums {
		if counts[c] > 0 {
			normalize(sums[c])
		}
	}
	for c := range sums {
		if counts[c] > 0 {
			continue
		}
		far, farSim := 0, math.Inf(1)
		for i, v := range unit {
			if s := dot(v, sums[labels[i]]); counts[labels[i]] > 1 && s < farSim {
				far, farSim = i, s
			}
		}
		sums[c] = clone(unit[far])
	}
	return sums
}

func distinct(labels []int) int {
	seen := make(map[int]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}

// canonical renumbers labels so cluster ids follow first appearance.
func canonical(labels []int) []int {
	remap := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := remap[l]
		if !ok {
			id = len(remap)
			remap[l] = id
		}
		out[i] = id
	}
	return out
}

// silhouette returns the mean silhouette coefficient under cosine
// distance, computed over a seeded sample of at most silhouetteSize
// points.
func silhouette(unit [][]float64, labels []int, k int, seed int64) float64 {
	n := len(unit)
	if k < 2 || n < 3 {
		return 0
	}
	sample := make([]int, n)
	for i := range sample {
		sample[i] = i
	}
	if n > silhouetteSize {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(n, func(i, j int) { sample[i], sample[j] = sample[j], sample[i] })
		sample = sample[:silhouetteSize]
	}

	var total float64
	for _, i := range sample {
		sums := make([]float64, k)
		counts := make([]int, k)
		for _, j := range sample {
			if i == j {
				continue
			}
			sums[labels[j]] += 1 - dot(unit[i], unit[j])
			counts[labels[j]]++
		}
		own := labels[i]
		if counts[own] == 0 {
			continue
		}
		a := sums[own] / float64(counts[own])
		b := math.Inf(1)
		for c := range sums {
			if c != own && counts[c] > 0 {
				b = math.Min(b, sums[c]/float64(counts[c]))
			}
		}
		if math.IsInf(b, 1) {
			continue
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(len(sample))
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}

func normalize(v []float64) {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
}
