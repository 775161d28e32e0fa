package reveal

import (
	"time"

	"github.com/scenereveal/backend-go/internal/geometry"
)

// AllocateDurations splits total across the segments of a waypoint path in
// proportion to their length. The last segment takes the rounding
// remainder so that the durations add up to total exactly. It returns nil
// when there is nothing to animate: fewer than two waypoints or a path of
// zero length.
func AllocateDurations(waypoints []geometry.Point, total time.Duration) []time.Duration {
	if len(waypoints) < 2 || total < 0 {
		return nil
	}

	lengths := make([]float64, len(waypoints)-1)
	sum := 0.0
	for i := 1; i < len(waypoints); i++ {
		lengths[i-1] = geometry.Distance(waypoints[i-1], waypoints[i])
		sum += lengths[i-1]
	}
	if sum == 0 {
		return nil
	}

	out := make([]time.Duration, len(lengths))
	var used time.Duration
	for i, l := range lengths[:len(lengths)-1] {
		out[i] = time.Duration(float64(total) * l / sum)
		used += out[i]
	}
	out[len(out)-1] = total - used
	return out
}
