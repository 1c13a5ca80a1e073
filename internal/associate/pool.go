package associate

import (
	"math"

	"plan-tracer/internal/entity"
	"plan-tracer/pkg/geometry"
)

// candidate caches an entity's anchor so the inner loop never recomputes
// centroids.
type candidate struct {
	id     string
	anchor geometry.Point2D
}

// pool is a fixed candidate set, optionally backed by a uniform grid bucketed
// at the threshold distance. With cell size >= threshold, every qualifying
// match for a query point lies in the 3x3 cell neighborhood around it, so the
// pruned scan sees a superset of the qualifying candidates and the shared
// comparator yields identical results to the full scan.
type pool struct {
	all []candidate

	cellSize float64
	cells    map[[2]int][]candidate
}

func newPool(entities []*entity.Entity, maxDist float64, useIndex bool) *pool {
	p := &pool{all: make([]candidate, len(entities))}
	for i, e := range entities {
		p.all[i] = candidate{id: e.ID, anchor: e.Anchor()}
	}

	if useIndex && maxDist > 0 && len(p.all) > 0 {
		p.cellSize = maxDist
		p.cells = make(map[[2]int][]candidate)
		for _, c := range p.all {
			key := p.cellOf(c.anchor)
			p.cells[key] = append(p.cells[key], c)
		}
	}
	return p
}

func (p *pool) cellOf(pt geometry.Point2D) [2]int {
	return [2]int{
		int(math.Floor(pt.X / p.cellSize)),
		int(math.Floor(pt.Y / p.cellSize)),
	}
}

// nearest returns the closest candidate within maxDist, ties broken by
// smallest id. Returns nil when nothing qualifies.
func (p *pool) nearest(from geometry.Point2D, maxDist float64) *Match {
	if maxDist <= 0 || len(p.all) == 0 {
		return nil
	}
	if p.cells != nil {
		return p.nearestIndexed(from, maxDist)
	}
	return best(p.all, from, maxDist)
}

func (p *pool) nearestIndexed(from geometry.Point2D, maxDist float64) *Match {
	center := p.cellOf(from)
	var m *Match
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			cell := p.cells[[2]int{center[0] + dx, center[1] + dy}]
			if cm := best(cell, from, maxDist); cm != nil {
				if m == nil || closer(cm, m) {
					m = cm
				}
			}
		}
	}
	return m
}

// best scans candidates for the minimum distance within maxDist, applying
// the deterministic tie-break regardless of slice order.
func best(cands []candidate, from geometry.Point2D, maxDist float64) *Match {
	var m *Match
	for _, c := range cands {
		d := from.Distance(c.anchor)
		if d > maxDist {
			continue
		}
		next := &Match{ID: c.id, Distance: d}
		if m == nil || closer(next, m) {
			m = next
		}
	}
	return m
}

// closer orders matches by distance, then by id.
func closer(a, b *Match) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}
