package quantizer

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/maax3v3/palcalc/internal/color"
)

const (
	// MaxClusters is the largest palette the quantizer produces.
	MaxClusters = 256

	// DefaultAttempts is the number of independent seed-and-iterate runs.
	DefaultAttempts = 5

	// DefaultMaxSteps caps the Lloyd iterations of one attempt.
	DefaultMaxSteps = 1000
)

// ErrDegenerateInput is returned when there are no colors to cluster.
var ErrDegenerateInput = errors.New("no distinct colors to quantize")

// Config controls a quantizer run.
type Config struct {
	// Clusters is the requested palette size. It is clamped to
	// [1, min(MaxClusters, unique colors)].
	Clusters int

	// Attempts is the number of independent restarts. Default: 5.
	Attempts int

	// MaxSteps caps the iterations of one attempt. Default: 1000.
	MaxSteps int

	// Workers is the number of goroutines used by the assignment step.
	// Default: GOMAXPROCS.
	Workers int

	// Rand is the random source used for seeding. If nil, a randomly
	// seeded source is used.
	Rand *rand.Rand

	// Reporter receives progress updates. If nil, updates are discarded.
	Reporter Reporter
}

func (c *Config) setDefaults() {
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.Reporter == nil {
		c.Reporter = NopReporter{}
	}
}

// ResolveClusters returns the effective cluster count for a requested count
// k and u distinct colors.
func ResolveClusters(k, u int) int {
	k = max(1, min(k, MaxClusters))
	return min(k, u)
}

// Attempt summarizes one seed-and-iterate run.
type Attempt struct {
	Steps     int
	Converged bool
	Moved     uint64  // reassignments in the last step that recomputed centroids
	Distance  float64 // centroid movement of that step
}

// Result is the outcome of a completed run.
type Result struct {
	Centroids []color.Sample
	Weights   []uint64 // pixels assigned to each centroid
	Unique    int      // distinct input colors
	Attempts  []Attempt
	Steps     uint32 // steps run across all attempts
}

// Quantizer owns a weighted point set and the centroid array computed
// from it. A Quantizer is not safe for concurrent use.
type Quantizer struct {
	cfg       Config
	points    []Point
	centroids []color.Sample
	accs      []color.Accumulator
	est       estimator
}

// New creates a quantizer over points. The slice is owned by the quantizer
// from then on: seeding reorders it in place.
func New(points []Point, cfg Config) (*Quantizer, error) {
	if len(points) == 0 {
		return nil, ErrDegenerateInput
	}
	cfg.setDefaults()
	k := ResolveClusters(cfg.Clusters, len(points))
	return &Quantizer{
		cfg:       cfg,
		points:    points,
		centroids: make([]color.Sample, k),
		accs:      make([]color.Accumulator, k),
		est:       estimator{attempts: cfg.Attempts, maxSteps: cfg.MaxSteps},
	}, nil
}

// Clusters returns the effective cluster count.
func (q *Quantizer) Clusters() int {
	return len(q.centroids)
}

// Points returns the point set in its current order.
func (q *Quantizer) Points() []Point {
	return q.points
}

// Centroids returns a copy of the centroid array.
func (q *Quantizer) Centroids() []color.Sample {
	out := make([]color.Sample, len(q.centroids))
	copy(out, q.centroids)
	return out
}

// Run performs all attempts and returns the centroids of the last one.
// ctx is checked between attempts only.
func (q *Quantizer) Run(ctx context.Context) (*Result, error) {
	res := &Result{Unique: len(q.points)}
	for i := 0; i < q.cfg.Attempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Attempts = append(res.Attempts, q.runAttempt(i))
	}
	res.Centroids = q.Centroids()
	res.Weights = q.weights()
	res.Steps = q.est.done
	return res, nil
}

func (q *Quantizer) runAttempt(attempt int) Attempt {
	q.seed()

	var a Attempt
	for step := 1; step <= q.cfg.MaxSteps; step++ {
		moved := q.assign()
		q.est.step()
		a.Steps = step
		if moved == 0 {
			a.Converged = true
			q.est.finishAttempt()
			q.report(attempt, step, 0, 0, true)
			return a
		}

		a.Moved = moved
		a.Distance = q.recompute()
		if q.cfg.Reporter.Due() {
			q.report(attempt, step, a.Moved, a.Distance, false)
		}
	}

	q.est.finishAttempt()
	q.report(attempt, a.Steps, a.Moved, a.Distance, true)
	return a
}

func (q *Quantizer) report(attempt, step int, moved uint64, dist float64, final bool) {
	q.cfg.Reporter.Report(Update{
		Attempt:        uint32(attempt),
		Step:           uint32(step),
		PointsMoved:    moved,
		Distance:       dist * 100,
		StepsDone:      q.est.done,
		StepsEstimated: q.est.estimate(),
		Final:          final,
	})
}

// seed chooses initial centroids with k-means++. The first seed is drawn
// uniformly over the distinct colors, every further seed with probability
// proportional to its squared distance to the nearest seed so far. Chosen
// points are swapped into the prefix of the point slice.
func (q *Quantizer) seed() {
	pts := q.points
	n := len(pts)
	k := len(q.centroids)

	first := q.cfg.Rand.IntN(n)
	pts[0], pts[first] = pts[first], pts[0]
	for i := range pts {
		pts[i].minDistSq = math.Inf(1)
	}

	for c := 1; c < k; c++ {
		prev := pts[c-1].Color
		var sum float64
		for i := c; i < n; i++ {
			if d := color.DistanceSq(pts[i].Color, prev); d < pts[i].minDistSq {
				pts[i].minDistSq = d
			}
			sum += pts[i].minDistSq
		}

		// Falls back to the last point when every remaining point coincides
		// with a seed or rounding leaves the walk short of the target.
		chosen := n - 1
		if sum > 0 {
			target := q.cfg.Rand.Float64() * sum
			var acc float64
			for i := c; i < n; i++ {
				acc += pts[i].minDistSq
				if acc > target {
					chosen = i
					break
				}
			}
		}
		pts[c], pts[chosen] = pts[chosen], pts[c]
	}

	for c := range q.centroids {
		q.centroids[c] = pts[c].Color
	}
	for i := range pts {
		pts[i].cluster = unassigned
	}
}

// assign moves every point to its nearest centroid and returns how many
// points changed cluster. Points are split into contiguous chunks, one per
// worker; centroids are only read.
func (q *Quantizer) assign() uint64 {
	var moved atomic.Uint64
	var wg sync.WaitGroup

	n := len(q.points)
	chunk := (n + q.cfg.Workers - 1) / q.cfg.Workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(pts []Point) {
			defer wg.Done()
			var local uint64
			for i := range pts {
				if nearest(&pts[i], q.centroids) {
					local++
				}
			}
			if local > 0 {
				moved.Add(local)
			}
		}(q.points[start:end])
	}
	wg.Wait()
	return moved.Load()
}

// nearest reassigns p to the closest centroid. The current centroid wins
// ties, then the lowest index. It reports whether p changed cluster.
func nearest(p *Point, centroids []color.Sample) bool {
	best := p.cluster
	bestDist := math.Inf(1)
	if best != unassigned {
		bestDist = color.DistanceSq(p.Color, centroids[best])
	}
	for j, c := range centroids {
		if d := color.DistanceSq(p.Color, c); d < bestDist {
			best, bestDist = j, d
		}
	}
	if best == p.cluster {
		return false
	}
	p.cluster = best
	return true
}

// recompute moves every centroid to the weighted mean of its points and
// returns the summed movement. Empty clusters keep their centroid.
func (q *Quantizer) recompute() float64 {
	for i := range q.accs {
		q.accs[i].Reset()
	}
	for i := range q.points {
		p := &q.points[i]
		q.accs[p.cluster].Add(p.Color, p.Weight)
	}

	var total float64
	for j := range q.accs {
		mean, ok := q.accs[j].Mean()
		if !ok {
			continue
		}
		total += color.Distance(q.centroids[j], mean)
		q.centroids[j] = mean
	}
	return total
}

func (q *Quantizer) weights() []uint64 {
	w := make([]uint64, len(q.centroids))
	for i := range q.points {
		if c := q.points[i].cluster; c != unassigned {
			w[c] += q.points[i].Weight
		}
	}
	return w
}
