// Package associate links each device to its nearest label and nearest other
// entity within configured distance thresholds.
//
// Matching is per-device greedy nearest-neighbor, not a one-to-one optimal
// assignment: several devices may resolve to the same label. All distances
// are computed in CAD drawing units, before the image transform is applied,
// because the thresholds are expressed in drawing units.
package associate

import (
	"sort"
	"sync"

	"plan-tracer/internal/entity"
)

// Match identifies one matched entity and the CAD-space distance to it.
// The distance never exceeds the threshold the match was found under.
type Match struct {
	ID       string
	Distance float64
}

// Association is the per-device match result. Label and Other are nil when
// no candidate lies within the respective threshold, which is a normal
// outcome rather than an error.
type Association struct {
	DeviceID string
	Label    *Match
	Other    *Match
}

// Options tunes how the search executes. Neither option may change results:
// the grid index and the worker pool are required to reproduce the naive
// scan's matches and tie-breaking exactly.
type Options struct {
	// UseIndex buckets candidates into a uniform grid at the threshold
	// distance, pruning the scan to neighboring cells.
	UseIndex bool

	// Workers distributes the per-device searches; <=1 runs serially.
	Workers int
}

// Engine matches devices against fixed label and other-entity pools.
type Engine struct {
	labelMax float64
	otherMax float64
	opts     Options

	labels *pool
	others *pool
}

// New builds an engine over the candidate pools. A non-positive threshold
// disables the corresponding link entirely.
func New(labels, others []*entity.Entity, labelMax, otherMax float64, opts Options) *Engine {
	return &Engine{
		labelMax: labelMax,
		otherMax: otherMax,
		opts:     opts,
		labels:   newPool(labels, labelMax, opts.UseIndex),
		others:   newPool(others, otherMax, opts.UseIndex),
	}
}

// Associate computes one Association per device. Devices are processed in
// ascending id order and the result slice is ordered the same way.
func (e *Engine) Associate(devices []*entity.Entity) []Association {
	ordered := make([]*entity.Entity, len(devices))
	copy(ordered, devices)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	out := make([]Association, len(ordered))
	work := func(i int) {
		d := ordered[i]
		anchor := d.Anchor()
		out[i] = Association{
			DeviceID: d.ID,
			Label:    e.labels.nearest(anchor, e.labelMax),
			Other:    e.others.nearest(anchor, e.otherMax),
		}
	}

	if e.opts.Workers <= 1 || len(ordered) < 2 {
		for i := range ordered {
			work(i)
		}
		return out
	}

	// Each worker writes only its own slots, so no synchronization beyond
	// the WaitGroup is needed and the result is order-independent.
	workers := e.opts.Workers
	if workers > len(ordered) {
		workers = len(ordered)
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for i := start; i < len(ordered); i += workers {
				work(i)
			}
		}(w)
	}
	wg.Wait()
	return out
}
