package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultClusters = 3

	components    = 2
	maxIterations = 300
	tolerance     = 1e-4
	restarts      = 10
)

// Clustering is the result of projecting users to two principal components
// and grouping them with k-means.
type Clustering struct {
	Points     [][]float64
	Labels     []int
	Centroids  [][]float64
	Sizes      []int
	Explained  []float64
	Inertia    float64
	Iterations int
}

// Cluster reduces vectors to two dimensions and runs k-means on the projection.
func Cluster(vectors [][]float64, k int, seed uint64) (*Clustering, error) {
	points, explained, err := Project(vectors, components)
	if err != nil {
		return nil, err
	}

	result, err := KMeans(points, k, seed)
	if err != nil {
		return nil, err
	}
	result.Explained = explained

	return result, nil
}

// Project centres vectors and maps them onto their first n principal components.
// The returned ratios are the share of variance each component explains.
func Project(vectors [][]float64, n int) ([][]float64, []float64, error) {
	rows := len(vectors)
	if rows < 2 {
		return nil, nil, fmt.Errorf("need at least 2 vectors for PCA, got %d", rows)
	}
	cols := len(vectors[0])
	if cols == 0 {
		return nil, nil, fmt.Errorf("vectors have no features")
	}

	centred := mat.NewDense(rows, cols, nil)
	for i, v := range vectors {
		if len(v) != cols {
			return nil, nil, fmt.Errorf("vector %d has %d features, expected %d", i, len(v), cols)
		}
		centred.SetRow(i, v)
	}
	column := make([]float64, rows)
	for j := range cols {
		mat.Col(column, j, centred)
		mean := stat.Mean(column, nil)
		for i := range rows {
			centred.Set(i, j, column[i]-mean)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(centred, nil); !ok {
		return nil, nil, fmt.Errorf("principal component analysis failed")
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, available := vecs.Dims()
	used := min(n, available)

	var projected mat.Dense
	projected.Mul(centred, vecs.Slice(0, cols, 0, used))

	points := make([][]float64, rows)
	for i := range rows {
		points[i] = make([]float64, n)
		for j := range used {
			points[i][j] = projected.At(i, j)
		}
	}

	vars := pc.VarsTo(nil)
	total := floats.Sum(vars)
	explained := make([]float64, n)
	if total > 0 {
		for j := range used {
			explained[j] = vars[j] / total
		}
	}

	return points, explained, nil
}

// KMeans groups points into k clusters with k-means++ seeding and Lloyd
// iterations. The best of several seeded restarts by inertia is kept.
func KMeans(points [][]float64, k int, seed uint64) (*Clustering, error) {
	if k <= 0 {
		return nil, fmt.Errorf("number of clusters must be positive, got %d", k)
	}
	if len(points) < k {
		return nil, fmt.Errorf("need at least %d points for %d clusters, got %d", k, k, len(points))
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	threshold := tolerance * meanVariance(points)

	var best *Clustering
	for range restarts {
		c := lloyd(points, seedCentroids(points, k, rng), threshold)
		if best == nil || c.Inertia < best.Inertia {
			best = c
		}
	}

	return best, nil
}

func lloyd(points, centroids [][]float64, threshold float64) *Clustering {
	k := len(centroids)
	labels := make([]int, len(points))

	iterations := 0
	for iterations < maxIterations {
		iterations++
		assign(points, centroids, labels)

		next := update(points, centroids, labels)

		shift := 0.0
		for j := range next {
			d := floats.Distance(next[j], centroids[j], 2)
			shift += d * d
		}
		centroids = next

		if shift <= threshold {
			break
		}
	}

	inertia := assign(points, centroids, labels)

	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}

	return &Clustering{
		Points:     points,
		Labels:     labels,
		Centroids:  centroids,
		Sizes:      sizes,
		Inertia:    inertia,
		Iterations: iterations,
	}
}

// update returns the mean of every cluster. An empty cluster first takes over
// the point furthest from its centroid, and that point leaves its old cluster.
func update(points, centroids [][]float64, labels []int) [][]float64 {
	k := len(centroids)
	dim := len(points[0])

	sums := make([][]float64, k)
	counts := make([]int, k)
	for j := range sums {
		sums[j] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}

	for j := range sums {
		if counts[j] > 0 {
			continue
		}
		far := furthest(points, centroids, labels, counts)
		if far < 0 {
			copy(sums[j], centroids[j])
			counts[j] = 1
			continue
		}
		donor := labels[far]
		floats.Sub(sums[donor], points[far])
		counts[donor]--
		copy(sums[j], points[far])
		counts[j] = 1
		labels[far] = j
	}

	for j := range sums {
		floats.Scale(1/float64(counts[j]), sums[j])
	}

	return sums
}

// assign labels every point with its nearest centroid and returns the inertia.
func assign(points, centroids [][]float64, labels []int) float64 {
	inertia := 0.0
	for i, p := range points {
		bestDist := math.Inf(1)
		for j, c := range centroids {
			d := floats.Distance(p, c, 2)
			if d < bestDist {
				bestDist = d
				labels[i] = j
			}
		}
		inertia += bestDist * bestDist
	}

	return inertia
}

// furthest returns the point furthest from its centroid among clusters that can
// spare one, or -1 when none can.
func furthest(points, centroids [][]float64, labels, counts []int) int {
	idx, maxDist := -1, -1.0
	for i, p := range points {
		if counts[labels[i]] < 2 {
			continue
		}
		if d := floats.Distance(p, centroids[labels[i]], 2); d > maxDist {
			idx, maxDist = i, d
		}
	}

	return idx
}

// seedCentroids picks the first centre uniformly, then each next one with
// probability proportional to its squared distance from the closest chosen centre.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.IntN(len(points))]))

	dist := make([]float64, len(points))
	for len(centroids) < k {
		for i, p := range points {
			dist[i] = math.Inf(1)
			for _, c := range centroids {
				d := floats.Distance(p, c, 2)
				dist[i] = min(dist[i], d*d)
			}
		}

		total := floats.Sum(dist)
		if total == 0 {
			centroids = append(centroids, clone(points[rng.IntN(len(points))]))
			continue
		}

		target := rng.Float64() * total
		chosen := len(points) - 1
		for i, d := range dist {
			target -= d
			if target < 0 {
				chosen = i
				break
			}
		}
		centroids = append(centroids, clone(points[chosen]))
	}

	return centroids
}

func meanVariance(points [][]float64) float64 {
	dim := len(points[0])
	column := make([]float64, len(points))
	sum := 0.0
	for j := range dim {
		for i, p := range points {
			column[i] = p[j]
		}
		_, v := stat.PopMeanVariance(column, nil)
		sum += v
	}

	return sum / float64(dim)
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}

func RenderClusters(c *Clustering) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("User Clustering based on Interests (PCA + KMeans)")
	tw.AppendHeader(table.Row{"Cluster", "Users", "Centroid PC1", "Centroid PC2"})
	for j, centroid := range c.Centroids {
		tw.AppendRow(table.Row{j, c.Sizes[j], formatFloat(centroid[0]), formatFloat(centroid[1])})
	}
	if len(c.Explained) == components {
		tw.AppendFooter(table.Row{"", "", "Explained variance", fmt.Sprintf("%.1f%% / %.1f%%", c.Explained[0]*100, c.Explained[1]*100)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	return tw.Render()
}

func clustersTable(c *Clustering, userIDs []int) table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"user_id", "pc1", "pc2", "cluster"})
	for i, p := range c.Points {
		tw.AppendRow(table.Row{
			userIDs[i],
			strconv.FormatFloat(p[0], 'f', -1, 64),
			strconv.FormatFloat(p[1], 'f', -1, 64),
			c.Labels[i],
		})
	}

	return tw
}
