package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeline_GaplessInvariant(t *testing.T) {
	for _, count := range []int{1, 2, 50} {
		t.Run(fmt.Sprintf("%d_segments", count), func(t *testing.T) {
			timeline := NewTimeline()
			for i := 0; i < count; i++ {
				timeline.Append(fmt.Sprintf("line-%d", i), float64(i%7)+0.5)
			}

			segments := timeline.Segments()
			require.Len(t, segments, count)
			assert.Equal(t, 0.0, segments[0].Start)
			for i := 1; i < len(segments); i++ {
				assert.Equal(t, segments[i-1].End, segments[i].Start,
					"segment %d must start where segment %d ended", i, i-1)
			}
			assert.Equal(t, segments[len(segments)-1].End, timeline.Duration())
		})
	}
}

func TestTimeline_NegativeDurationClamped(t *testing.T) {
	timeline := NewTimeline()
	timeline.Append("a", 2)
	start, end := timeline.Append("b", -5)

	assert.Equal(t, 2.0, start)
	assert.Equal(t, 2.0, end)
	assert.Equal(t, 2.0, timeline.Duration())
}

func TestTimeline_StartOf(t *testing.T) {
	timeline := NewTimeline()
	timeline.Append("a", 1.5)
	timeline.Append("b", 2.5)

	start, ok := timeline.StartOf("b")
	require.True(t, ok)
	assert.Equal(t, 1.5, start)

	_, ok = timeline.StartOf("missing")
	assert.False(t, ok)
}

func TestTimeline_SegmentsReturnsCopy(t *testing.T) {
	timeline := NewTimeline()
	timeline.Append("a", 1)

	segments := timeline.Segments()
	segments[0].Start = 99

	fresh := timeline.Segments()
	assert.Equal(t, 0.0, fresh[0].Start)
}
