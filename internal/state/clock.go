package state

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// Clock hands out stroke ids that are unique across peers: a random site id
// plus a Lamport counter.
type Clock struct {
	site    string
	lamport uint64
}

func NewClock() *Clock {
	return &Clock{site: uuid.NewString()}
}

func (c *Clock) Site() string { return c.site }

func (c *Clock) Tick() uint64 {
	return atomic.AddUint64(&c.lamport, 1)
}

// Observe moves the counter forward past a timestamp seen from a peer.
func (c *Clock) Observe(ts uint64) {
	for {
		cur := atomic.LoadUint64(&c.lamport)
		if ts <= cur || atomic.CompareAndSwapUint64(&c.lamport, cur, ts) {
			return
		}
	}
}

// NextStrokeID returns "stroke-<site>-<lamport>".
func (c *Clock) NextStrokeID() string {
	return fmt.Sprintf("stroke-%s-%d", c.site, c.Tick())
}

// ParseStrokeID splits an id produced by NextStrokeID. Site ids contain
// dashes so the counter is taken from the last segment.
func ParseStrokeID(id string) (site string, ts uint64, ok bool) {
	rest, found := strings.CutPrefix(id, "stroke-")
	if !found {
		return "", 0, false
	}
	i := strings.LastIndexByte(rest, '-')
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.ParseUint(rest[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return rest[:i], n, true
}
