package similarity

import (
	"context"
	"sort"
	"unicode/utf8"
)

// Analyze finds similar pairs and clusters the vectors. previews maps a
// definition id to its source text; the first PreviewLength characters
// are attached to each pair member.
func Analyze(ctx context.Context, vecs []Vector, previews map[string]string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	sorted := append([]Vector(nil), vecs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	pairs, method, err := FindPairs(ctx, sorted, opts)
	if err != nil {
		return nil, err
	}
	clustering, err := KMeans(ctx, sorted, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Pairs:       pairs,
		Clusters:    []Cluster{},
		Assignments: make(map[string]int, len(sorted)),
		K:           clustering.K,
		Silhouette:  clustering.Silhouette,
		Method:      method,
		Embedded:    len(sorted),
	}
	for i, v := range sorted {
		res.Assignments[v.ID] = clustering.Labels[i]
	}

	members := make([][]string, clustering.K)
	for i, v := range sorted {
		l := clustering.Labels[i]
		members[l] = append(members[l], v.ID)
	}
	for id, m := range members {
		res.Clusters = append(res.Clusters, Cluster{ID: id, Members: m, Size: len(m)})
		if len(m) == 1 {
			res.Singletons++
		}
	}
	if clustering.K > 0 {
		res.AverageClusterSize = float64(len(sorted)) / float64(clustering.K)
	}

	for i := range res.Pairs {
		p := &res.Pairs[i]
		if ca, cb := res.Assignments[p.A], res.Assignments[p.B]; ca == cb {
			p.Cluster = ca
		}
		p.PreviewA = Preview(previews[p.A])
		p.PreviewB = Preview(previews[p.B])
	}
	return res, nil
}

// Preview returns at most PreviewLength characters of text.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLength {
		return text
	}
	r := []rune(text)
	return string(r[:PreviewLength])
}
