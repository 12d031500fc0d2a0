package acoustic

import (
	"container/heap"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/ieee0824/asrtools/cluster"
)

// GaussianMergingOptions controls MergeGaussiansInPdfs.
type GaussianMergingOptions struct {
	MaxNumGauss          int     // reduce the model by occupancy first if the pdfs have more Gaussians
	IntermediateNumGauss int     // target of the per-state-cluster merge
	GmmNumGauss          int     // Gaussians in the output GMM
	ReduceStateFactor    float64 // fraction of states kept after state pre-clustering; 1 disables it
	ClusterVarFloor      float64
}

// DefaultGaussianMergingOptions returns the standard settings.
func DefaultGaussianMergingOptions() GaussianMergingOptions {
	return GaussianMergingOptions{
		MaxNumGauss:          20000,
		IntermediateNumGauss: 4000,
		GmmNumGauss:          400,
		ReduceStateFactor:    0.2,
		ClusterVarFloor:      0.01,
	}
}

// Register adds the options to fs with o's values as defaults.
func (o GaussianMergingOptions) Register(fs *pflag.FlagSet) {
	fs.Int("max-num-gauss", o.MaxNumGauss, "Maximum number of Gaussians allowed in the model before merging by count")
	fs.Int("intermediate-num-gauss", o.IntermediateNumGauss, "Number of Gaussians after merging within state clusters")
	fs.Int("gmm-num-gauss", o.GmmNumGauss, "Number of Gaussians in the output GMM")
	fs.Float64("reduce-state-factor", o.ReduceStateFactor, "Fraction of states kept by pre-clustering; 1 disables it")
	fs.Float64("cluster-varfloor", o.ClusterVarFloor, "Variance floor used in clustering")
}

// Check validates the option values.
func (o GaussianMergingOptions) Check() error {
	switch {
	case o.GmmNumGauss <= 0:
		return errors.Errorf("gmm-num-gauss must be positive, got %d", o.GmmNumGauss)
	case o.GmmNumGauss > o.IntermediateNumGauss:
		return errors.Errorf("gmm-num-gauss %d exceeds intermediate-num-gauss %d", o.GmmNumGauss, o.IntermediateNumGauss)
	case o.IntermediateNumGauss > o.MaxNumGauss:
		return errors.Errorf("intermediate-num-gauss %d exceeds max-num-gauss %d", o.IntermediateNumGauss, o.MaxNumGauss)
	case !(o.ReduceStateFactor > 0 && o.ReduceStateFactor <= 1):
		return errors.Errorf("reduce-state-factor must be in (0, 1], got %g", o.ReduceStateFactor)
	case !(o.ClusterVarFloor > 0):
		return errors.Errorf("cluster-varfloor must be positive, got %g", o.ClusterVarFloor)
	}
	return nil
}

type splitCandidate struct {
	pdf      int
	numGauss int
	occ      float64 // occupancy raised to the power
}

type splitQueue []splitCandidate

func (q splitQueue) Len() int { return len(q) }
func (q splitQueue) Less(a, b int) bool {
	return q[a].occ/float64(q[a].numGauss) > q[b].occ/float64(q[b].numGauss)
}
func (q splitQueue) Swap(a, b int) { q[a], q[b] = q[b], q[a] }
func (q *splitQueue) Push(x any)   { *q = append(*q, x.(splitCandidate)) }
func (q *splitQueue) Pop() any {
	old := *q
	x := old[len(old)-1]
	*q = old[:len(old)-1]
	return x
}

// SplitTargets distributes target Gaussians over pdfs in proportion to
// occs^power. Every pdf gets at least one; a pdf stops growing once another
// Gaussian would leave fewer than minCount frames per Gaussian.
func SplitTargets(occs []float64, target int, power, minCount float64) []int {
	targets := make([]int, len(occs))
	q := make(splitQueue, len(occs))
	for i, o := range occs {
		targets[i] = 1
		q[i] = splitCandidate{pdf: i, numGauss: 1, occ: math.Pow(o, power)}
	}
	heap.Init(&q)
	for numGauss := len(occs); numGauss < target && q.Len() > 0; {
		if q[0].occ == 0 {
			break
		}
		c := heap.Pop(&q).(splitCandidate)
		if float64(c.numGauss+1)*minCount >= occs[c.pdf] {
			continue
		}
		c.numGauss++
		targets[c.pdf] = c.numGauss
		numGauss++
		heap.Push(&q, c)
	}
	return targets
}

// MergeByCount merges the Gaussians of each pdf down to its share of
// target, as allocated by SplitTargets. Pdfs already at or below their
// share are left alone.
func (am *AmDiagGmm) MergeByCount(occs []float64, target int, power, minCount float64) error {
	if len(occs) != am.NumPdfs() {
		return errors.Errorf("have %d occupancies for %d pdfs", len(occs), am.NumPdfs())
	}
	for pdf, n := range SplitTargets(occs, target, power, minCount) {
		if n < am.Pdfs[pdf].NumGauss() {
			if err := am.Pdfs[pdf].Merge(n); err != nil {
				return errors.Wrapf(err, "pdf %d", pdf)
			}
		}
	}
	return nil
}

func numGaussIn(am *AmDiagGmm, pdfs []int) int {
	n := 0
	for _, pdf := range pdfs {
		n += am.Pdfs[pdf].NumGauss()
	}
	return n
}

// MergeGaussiansInPdfs pools the Gaussians of the listed pdfs, weighted by
// pdf occupancy, and merges them into one GMM of opts.GmmNumGauss
// components. Merging happens first within clusters of similar states,
// then across the whole pool.
func MergeGaussiansInPdfs(am *AmDiagGmm, accs *AccumAmDiagGmm, pdfs []int, opts GaussianMergingOptions, log *logrus.Entry) (*GMM, error) {
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if len(pdfs) == 0 {
		return nil, errors.New("no pdfs to merge")
	}
	if accs.NumAccs() != am.NumPdfs() {
		return nil, errors.Errorf("stats have %d pdfs, model has %d", accs.NumAccs(), am.NumPdfs())
	}
	occs := make([]float64, am.NumPdfs())
	for _, pdf := range pdfs {
		if pdf < 0 || pdf >= am.NumPdfs() {
			return nil, errors.Errorf("pdf %d out of range [0, %d)", pdf, am.NumPdfs())
		}
		occs[pdf] = accs.Pdfs[pdf].TotalOccupancy()
	}

	numGauss := numGaussIn(am, pdfs)
	if numGauss > opts.MaxNumGauss {
		log.Infof("first reducing num-gauss from %d in %d pdfs to %d", numGauss, len(pdfs), opts.MaxNumGauss)
		reduced := am.Copy()
		if err := reduced.MergeByCount(occs, opts.MaxNumGauss, 1.0, 1.0); err != nil {
			return nil, err
		}
		if n := numGaussIn(reduced, pdfs); n > opts.MaxNumGauss {
			log.Infof("clustered down to %d; will not cluster further", n)
			opts.MaxNumGauss = n
		}
		return MergeGaussiansInPdfs(reduced, accs, pdfs, opts, log)
	}

	numClustStates := len(pdfs)
	stateClusters := make([]int, len(pdfs))
	for i := range stateClusters {
		stateClusters[i] = i
	}
	if opts.ReduceStateFactor != 1 {
		target := int(opts.ReduceStateFactor * float64(len(pdfs)))
		if target < 1 {
			target = 1
		}
		log.Debug("merging densities to 1 Gaussian per state")
		states := make([]cluster.Clusterable, len(pdfs))
		for i, pdf := range pdfs {
			single := am.Pdfs[pdf].Copy()
			if err := single.Merge(1); err != nil {
				return nil, errors.Wrapf(err, "pdf %d", pdf)
			}
			c := single.Components[0]
			states[i] = cluster.FromGaussian(c.Mean, c.Variance, opts.ClusterVarFloor, occs[pdf])
		}
		log.Debugf("creating %d clusters of states", target)
		var clusters []cluster.Clusterable
		clusters, stateClusters, _ = cluster.BottomUp(states, math.MaxFloat64, target)
		numClustStates = len(clusters)
	}

	// Gaussians of similar states share a compartment and are merged with
	// each other first.
	pool := make([][]cluster.Clusterable, numClustStates)
	for i, pdf := range pdfs {
		c := stateClusters[i]
		pool[c] = append(pool[c], am.Pdfs[pdf].clusterables(occs[pdf], opts.ClusterVarFloor)...)
	}

	if opts.IntermediateNumGauss > numGauss {
		log.Warnf("intermediate-num-gauss %d is more than num-gauss %d, reducing it to %d",
			opts.IntermediateNumGauss, numGauss, numGauss)
		opts.IntermediateNumGauss = numGauss
	}
	if opts.IntermediateNumGauss < numClustStates {
		log.Warnf("intermediate-num-gauss %d is less than # of preclustered states %d, increasing it to %d",
			opts.IntermediateNumGauss, numClustStates, numClustStates)
		opts.IntermediateNumGauss = numClustStates
	}

	log.Debugf("merging from %d Gaussians down to %d", numGauss, opts.IntermediateNumGauss)
	merged, _, _ := cluster.BottomUpCompartmentalized(pool, math.MaxFloat64, opts.IntermediateNumGauss)
	var all []cluster.Clusterable
	for _, m := range merged {
		all = append(all, m...)
	}
	if len(all) == 0 {
		return nil, errors.New("listed pdfs have no occupancy")
	}
	gmm := gmmFromClusters(all, am.Dim())

	if opts.GmmNumGauss < gmm.NumGauss() {
		if err := gmm.Merge(opts.GmmNumGauss); err != nil {
			return nil, err
		}
		log.Debugf("merged down to %d Gaussians", gmm.NumGauss())
	} else {
		log.Warnf("not merging Gaussians since gmm-num-gauss %d is more than the %d Gaussians available",
			opts.GmmNumGauss, gmm.NumGauss())
	}
	return gmm, nil
}
