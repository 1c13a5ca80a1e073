package associate

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-tracer/internal/entity"
	"plan-tracer/pkg/geometry"
)

func at(id string, x, y float64) *entity.Entity {
	return &entity.Entity{ID: id, Name: id, Geometry: []geometry.Point2D{{X: x, Y: y}}}
}

func TestNearestLabelWithinThreshold(t *testing.T) {
	devices := []*entity.Entity{at("D1", 300, 1100)}
	labels := []*entity.Entity{
		at("L1", 310, 1105), // distance sqrt(125) ~ 11.18
		at("L2", 400, 1100), // distance 100
	}

	e := New(labels, nil, 60, 0, Options{})
	assocs := e.Associate(devices)
	require.Len(t, assocs, 1)

	require.NotNil(t, assocs[0].Label)
	assert.Equal(t, "L1", assocs[0].Label.ID)
	assert.InDelta(t, math.Sqrt(125), assocs[0].Label.Distance, 1e-9)
	assert.Nil(t, assocs[0].Other)
}

func TestNoMatchBeyondThreshold(t *testing.T) {
	devices := []*entity.Entity{at("D1", 0, 0)}
	labels := []*entity.Entity{at("L1", 100, 0)}

	assocs := New(labels, nil, 60, 0, Options{}).Associate(devices)
	require.Len(t, assocs, 1)
	assert.Nil(t, assocs[0].Label)
}

func TestTieBreakSmallestID(t *testing.T) {
	devices := []*entity.Entity{at("D1", 0, 0)}
	// Equidistant labels, deliberately out of id order in the pool.
	labels := []*entity.Entity{
		at("L9", 10, 0),
		at("L2", -10, 0),
		at("L5", 0, 10),
	}

	assocs := New(labels, nil, 60, 0, Options{}).Associate(devices)
	require.NotNil(t, assocs[0].Label)
	assert.Equal(t, "L2", assocs[0].Label.ID)
}

func TestManyToOne(t *testing.T) {
	// Two devices nearest to the same label: both get it, matching is not
	// exclusive.
	devices := []*entity.Entity{at("D1", -5, 0), at("D2", 5, 0)}
	labels := []*entity.Entity{at("L1", 0, 0)}

	assocs := New(labels, nil, 60, 0, Options{}).Associate(devices)
	require.Len(t, assocs, 2)
	require.NotNil(t, assocs[0].Label)
	require.NotNil(t, assocs[1].Label)
	assert.Equal(t, "L1", assocs[0].Label.ID)
	assert.Equal(t, "L1", assocs[1].Label.ID)
}

func TestIndependentThresholds(t *testing.T) {
	devices := []*entity.Entity{at("D1", 0, 0)}
	labels := []*entity.Entity{at("L1", 0, 50)}
	others := []*entity.Entity{at("O1", 15, 0)}

	assocs := New(labels, others, 60, 20, Options{}).Associate(devices)
	require.NotNil(t, assocs[0].Label)
	require.NotNil(t, assocs[0].Other)
	assert.Equal(t, "L1", assocs[0].Label.ID)
	assert.Equal(t, "O1", assocs[0].Other.ID)

	// Tight label threshold drops the label but keeps the other link.
	assocs = New(labels, others, 40, 20, Options{}).Associate(devices)
	assert.Nil(t, assocs[0].Label)
	require.NotNil(t, assocs[0].Other)
}

func TestZeroThresholdDisablesLink(t *testing.T) {
	devices := []*entity.Entity{at("D1", 0, 0)}
	others := []*entity.Entity{at("O1", 0, 0)}

	assocs := New(nil, others, 0, 0, Options{}).Associate(devices)
	assert.Nil(t, assocs[0].Label)
	assert.Nil(t, assocs[0].Other)
}

func TestResultsOrderedByDeviceID(t *testing.T) {
	devices := []*entity.Entity{at("D3", 0, 0), at("D1", 1, 0), at("D2", 2, 0)}

	assocs := New(nil, nil, 10, 10, Options{}).Associate(devices)
	require.Len(t, assocs, 3)
	assert.Equal(t, "D1", assocs[0].DeviceID)
	assert.Equal(t, "D2", assocs[1].DeviceID)
	assert.Equal(t, "D3", assocs[2].DeviceID)
}

func TestMultiVertexGeometryUsesCentroid(t *testing.T) {
	dev := &entity.Entity{ID: "D1", Geometry: []geometry.Point2D{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}}
	labels := []*entity.Entity{at("L1", 5, 6)}

	assocs := New(labels, nil, 60, 0, Options{}).Associate([]*entity.Entity{dev})
	require.NotNil(t, assocs[0].Label)
	assert.InDelta(t, 1.0, assocs[0].Label.Distance, 1e-9)
}

// randomEntities builds a deterministic random pool for property tests.
func randomEntities(rng *rand.Rand, prefix string, n int, extent float64) []*entity.Entity {
	out := make([]*entity.Entity, n)
	for i := range out {
		out[i] = at(fmt.Sprintf("%s%04d", prefix, i),
			rng.Float64()*extent, rng.Float64()*extent)
	}
	return out
}

func assertSameAssociations(t *testing.T, want, got []Association) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].DeviceID, got[i].DeviceID)
		assert.Equal(t, want[i].Label, got[i].Label, "device %s label", want[i].DeviceID)
		assert.Equal(t, want[i].Other, got[i].Other, "device %s other", want[i].DeviceID)
	}
}

func TestGridIndexMatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	devices := randomEntities(rng, "D", 200, 1000)
	labels := randomEntities(rng, "L", 150, 1000)
	others := randomEntities(rng, "O", 150, 1000)

	naive := New(labels, others, 35, 50, Options{}).Associate(devices)
	indexed := New(labels, others, 35, 50, Options{UseIndex: true}).Associate(devices)

	assertSameAssociations(t, naive, indexed)
}

func TestParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	devices := randomEntities(rng, "D", 300, 500)
	labels := randomEntities(rng, "L", 100, 500)

	serial := New(labels, nil, 40, 0, Options{}).Associate(devices)
	parallel := New(labels, nil, 40, 0, Options{Workers: 8}).Associate(devices)

	assertSameAssociations(t, serial, parallel)
}

func TestParallelIndexedMatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	devices := randomEntities(rng, "D", 250, 800)
	labels := randomEntities(rng, "L", 120, 800)
	others := randomEntities(rng, "O", 120, 800)

	naive := New(labels, others, 25, 60, Options{}).Associate(devices)
	both := New(labels, others, 25, 60, Options{UseIndex: true, Workers: 4}).Associate(devices)

	assertSameAssociations(t, naive, both)
}

func TestNaiveMinimumIsTrueMinimum(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	devices := randomEntities(rng, "D", 50, 300)
	labels := randomEntities(rng, "L", 80, 300)

	assocs := New(labels, nil, 45, 0, Options{}).Associate(devices)
	for _, a := range assocs {
		// Recompute the true minimum by brute force.
		var dev *entity.Entity
		for _, d := range devices {
			if d.ID == a.DeviceID {
				dev = d
			}
		}
		require.NotNil(t, dev)

		min := math.Inf(1)
		for _, l := range labels {
			if d := dev.Anchor().Distance(l.Anchor()); d < min {
				min = d
			}
		}

		if min <= 45 {
			require.NotNil(t, a.Label, "device %s", a.DeviceID)
			assert.InDelta(t, min, a.Label.Distance, 1e-12)
		} else {
			assert.Nil(t, a.Label, "device %s", a.DeviceID)
		}
	}
}
