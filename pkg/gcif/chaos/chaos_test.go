package chaos_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gcif/gcif/pkg/gcif/chaos"
)

func TestScoreIsSymmetricAroundMidpoint(t *testing.T) {
	assert.Equal(t, 0, chaos.Score(0))
	assert.Equal(t, 1, chaos.Score(1))
	assert.Equal(t, 127, chaos.Score(127))
	assert.Equal(t, 128, chaos.Score(128))
	assert.Equal(t, 1, chaos.Score(255))
}

func TestContextMatchesGeneratedTableShape(t *testing.T) {
	cases := []struct {
		sum  int
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{8, 4},
		{16, 5},
		{32, 6},
		{64, 7},
		{510, 7},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, chaos.Context(c.sum), "sum=%d", c.sum)
	}
}

func TestContextNeverExceedsNumContexts(t *testing.T) {
	for sum := 0; sum < 600; sum++ {
		c := chaos.Context(sum)
		assert.GreaterOrEqual(t, c, 0)
		assert.Less(t, c, chaos.NumContexts)
	}
}

func TestContextLSingleBucketCollapsesToZero(t *testing.T) {
	for _, sum := range []int{0, 1, 7, 64, 510} {
		assert.Equal(t, 0, chaos.ContextL(sum, 1))
	}
}

func TestContextLMatchesContextAtFullWidth(t *testing.T) {
	for sum := 0; sum < 600; sum++ {
		assert.Equal(t, chaos.Context(sum), chaos.ContextL(sum, chaos.NumContexts))
	}
}
