package state

import (
	"sync"

	"github.com/kataras/golog"
)

var logger = golog.Child("[state]")

// AllOwners clears every stroke on the surface.
const AllOwners = "all"

// Surface owns the strokes shown over the image: our own committed strokes
// in canvas pixels, the in-progress one, and strokes received from peers in
// normalized space.
type Surface struct {
	mu        sync.RWMutex
	clock     *Clock
	local     []Stroke
	current   *Stroke
	remote    []Stroke
	remoteIdx map[string]int
	// remoteEnd is one past the last point offset received per stroke id.
	remoteEnd map[string]int
}

func NewSurface(clock *Clock) *Surface {
	return &Surface{
		clock:     clock,
		remoteIdx: make(map[string]int),
		remoteEnd: make(map[string]int),
	}
}

// Commit appends a finished local stroke.
func (s *Surface) Commit(st Stroke) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Points = append([]Point(nil), st.Points...)
	s.local = append(s.local, st)
	s.current = nil
}

// SetCurrent replaces the in-progress stroke preview. A nil slice clears it.
func (s *Surface) SetCurrent(points []Point, tool Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(points) == 0 {
		s.current = nil
		return
	}
	s.current = &Stroke{
		Points: append([]Point(nil), points...),
		Color:  tool.Color,
		Width:  tool.Width,
		Type:   tool.Type,
		Tool:   tool.Params,
	}
}

// AddRemote merges a stroke batch from a peer. Batches sharing an id extend
// the same stroke. Offset places the batch within the stroke, so points we
// already hold are skipped; with a negative Offset the batch is appended
// as is. Returns true if anything new has to be drawn.
func (s *Surface) AddRemote(st Stroke) bool {
	if len(st.Points) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ts, ok := ParseStrokeID(st.ID); ok && s.clock != nil {
		s.clock.Observe(ts)
	}

	i, exists := s.remoteIdx[st.ID]
	if !exists || st.ID == "" {
		st.Points = append([]Point(nil), st.Points...)
		s.remote = append(s.remote, st)
		if st.ID != "" {
			s.remoteIdx[st.ID] = len(s.remote) - 1
			if st.Offset >= 0 {
				s.remoteEnd[st.ID] = st.Offset + len(st.Points)
			}
		}
		logger.Debugf("remote stroke %s added (%d points)", st.ID, len(st.Points))
		return true
	}

	known := &s.remote[i]
	pts := st.Points
	if st.Offset >= 0 {
		end := s.remoteEnd[st.ID]
		if skip := end - st.Offset; skip > 0 {
			if skip >= len(pts) {
				logger.Debugf("remote stroke %s: duplicate batch ignored", st.ID)
				return false
			}
			pts = pts[skip:]
		}
		if st.Offset+len(st.Points) > end {
			s.remoteEnd[st.ID] = st.Offset + len(st.Points)
		}
	}
	known.Points = append(known.Points, pts...)
	return true
}

// Clear removes strokes owned by owner, or everything for AllOwners.
func (s *Surface) Clear(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner == AllOwners {
		s.local = nil
		s.remote = nil
		s.remoteIdx = make(map[string]int)
		s.remoteEnd = make(map[string]int)
		return
	}

	local := s.local[:0]
	for _, st := range s.local {
		if st.OwnerID != owner {
			local = append(local, st)
		}
	}
	s.local = local

	remote := make([]Stroke, 0, len(s.remote))
	idx := make(map[string]int, len(s.remote))
	ends := make(map[string]int, len(s.remote))
	for _, st := range s.remote {
		if st.OwnerID == owner {
			continue
		}
		remote = append(remote, st)
		if st.ID != "" {
			idx[st.ID] = len(remote) - 1
			ends[st.ID] = s.remoteEnd[st.ID]
		}
	}
	s.remote = remote
	s.remoteIdx = idx
	s.remoteEnd = ends
}

// Strokes returns a copy of the committed local strokes.
func (s *Surface) Strokes() []Stroke {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Stroke(nil), s.local...)
}

// RemoteStrokes returns a copy of the peer strokes, in normalized space.
func (s *Surface) RemoteStrokes() []Stroke {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Stroke(nil), s.remote...)
}

func (s *Surface) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.local)
}

// Paths builds the draw list: local strokes, then remote strokes mapped back
// into display, then the in-progress stroke on top.
func (s *Surface) Paths(display Rect) []PathDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PathDescriptor, 0, len(s.local)+len(s.remote)+1)
	for _, st := range s.local {
		out = append(out, descriptorFor(st, st.Points))
	}
	for _, st := range s.remote {
		pts := make([]Point, len(st.Points))
		for i, p := range st.Points {
			pts[i] = Denormalize(p, display)
		}
		out = append(out, descriptorFor(st, pts))
	}
	if s.current != nil {
		out = append(out, descriptorFor(*s.current, s.current.Points))
	}
	return out
}
