package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionGeometry(t *testing.T) {
	r := New(Index{1, 2, 3}, [3]int{2, 3, 4})

	assert.Equal(t, Index{3, 5, 7}, r.End())
	assert.Equal(t, int64(24), r.NumVoxels())
	assert.True(t, r.Contains(Index{1, 2, 3}))
	assert.True(t, r.Contains(Index{2, 4, 6}))
	assert.False(t, r.Contains(Index{3, 4, 6}))
	assert.False(t, r.Contains(Index{1, 1, 3}))

	overlap, ok := r.Intersect(New(Index{2, 0, 0}, [3]int{5, 5, 5}))
	assert.True(t, ok)
	assert.Equal(t, New(Index{2, 2, 3}, [3]int{1, 3, 2}), overlap)

	_, ok = r.Intersect(New(Index{3, 2, 3}, [3]int{1, 1, 1}))
	assert.False(t, ok)

	assert.True(t, r.ContainsRegion(New(Index{1, 2, 3}, [3]int{1, 1, 1})))
	assert.False(t, r.ContainsRegion(New(Index{0, 2, 3}, [3]int{2, 1, 1})))
}

func TestRegionEachOrder(t *testing.T) {
	var visited []Index
	New(Index{0, 0, 0}, [3]int{2, 2, 1}).Each(func(p Index) {
		visited = append(visited, p)
	})
	assert.Equal(t, []Index{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}, visited)
}

func TestRegionString(t *testing.T) {
	face := Region{Kind: Face, Axis: 1, Side: High, Start: Index{1, 4, 0}, Size: [3]int{3, 1, 5}}
	assert.Equal(t, "face high-y 3x1x5 at (1,4,0)", face.String())
	assert.Equal(t, "interior 3x3x3 at (1,1,1)", New(Index{1, 1, 1}, [3]int{3, 3, 3}).String())
}
