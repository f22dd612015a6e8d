package domain

// TimelineSegment maps one script line to its absolute time window.
type TimelineSegment struct {
	LineID string  `json:"line_id"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
}

// Timeline is the gapless, ordered mapping of script lines to master-clock
// windows. Every segment starts exactly where the previous one ended and the
// first segment starts at zero, so caption and overlay timing can trust
// End(i) == Start(i+1) without re-checking.
type Timeline struct {
	segments []TimelineSegment
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Append adds the next segment, deriving its window from the running end of
// the timeline. Durations that are not positive still produce a valid
// zero-length segment rather than breaking the invariant.
func (t *Timeline) Append(lineID string, duration float64) (start, end float64) {
	start = t.Duration()
	if duration < 0 {
		duration = 0
	}
	end = start + duration
	t.segments = append(t.segments, TimelineSegment{LineID: lineID, Start: start, End: end})
	return start, end
}

// Duration is the running end of the timeline, 0 when empty.
func (t *Timeline) Duration() float64 {
	if len(t.segments) == 0 {
		return 0
	}
	return t.segments[len(t.segments)-1].End
}

func (t *Timeline) Len() int {
	return len(t.segments)
}

// Segments returns a copy so callers cannot break the invariant.
func (t *Timeline) Segments() []TimelineSegment {
	out := make([]TimelineSegment, len(t.segments))
	copy(out, t.segments)
	return out
}

// StartOf returns the absolute start of the given line's segment.
func (t *Timeline) StartOf(lineID string) (float64, bool) {
	for _, seg := range t.segments {
		if seg.LineID == lineID {
			return seg.Start, true
		}
	}
	return 0, false
}
