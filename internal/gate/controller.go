package gate

import (
	"fmt"

	"github.com/rs/zerolog"
)

type State int

const (
	StateIdle State = iota
	StateQueueing
	StateFullSignaled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQueueing:
		return "queueing"
	case StateFullSignaled:
		return "full_signaled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateIdle, StateQueueing, StateFullSignaled} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown gate state %q", text)
}

// Controller decides when the entry gate opens. It reads occupancy but
// never changes it, and owns the queue of cars waiting at the gates.
type Controller struct {
	capacity  int
	occupancy Occupancy
	waiting   []RequestEntry
	state     State
	logger    zerolog.Logger
}

func NewController(occupancy Occupancy, capacity int, logger zerolog.Logger) (*Controller, error) {
	if occupancy == nil {
		return nil, &ConfigurationError{Field: "occupancy", Reason: "source is required"}
	}
	if capacity <= 0 {
		return nil, &ConfigurationError{Field: "capacity", Reason: fmt.Sprintf("must be positive, got %d", capacity)}
	}
	return &Controller{
		capacity:  capacity,
		occupancy: occupancy,
		logger:    logger,
	}, nil
}

func (c *Controller) Reset() {
	c.waiting = nil
	c.state = StateIdle
}

func (c *Controller) full() bool {
	return c.occupancy.SpacesUsed() >= c.capacity
}

// RequestEntry queues the request when the car park is full at the time
// of the call. A request made while spaces are free proceeds without
// queueing and produces no transition.
func (c *Controller) RequestEntry(req RequestEntry) (Transition, bool) {
	used := c.occupancy.SpacesUsed()
	if used < c.capacity {
		c.logger.Debug().
			Str("gate_id", req.GateID).
			Int("spaces_used", used).
			Msg("space available, request proceeds")
		return Transition{}, false
	}

	c.waiting = append(c.waiting, req)
	c.state = StateQueueing
	c.logger.Info().
		Str("gate_id", req.GateID).
		Int("queue_depth", len(c.waiting)).
		Msg("car park full, please wait until gate opens")

	return Transition{
		Kind:       TransitionQueued,
		SpacesUsed: used,
		GateID:     req.GateID,
		QueueDepth: len(c.waiting),
	}, true
}

// Reevaluate admits at most one waiting request. It runs once after every
// occupancy change.
func (c *Controller) Reevaluate() (Transition, bool) {
	used := c.occupancy.SpacesUsed()

	if len(c.waiting) > 0 && used < c.capacity {
		head := c.waiting[0]
		c.waiting[0] = RequestEntry{}
		c.waiting = c.waiting[1:]
		if len(c.waiting) == 0 {
			c.waiting = nil
			c.state = StateIdle
		} else {
			c.state = StateQueueing
		}
		c.logger.Info().
			Str("gate_id", head.GateID).
			Int("spaces_used", used).
			Int("queue_depth", len(c.waiting)).
			Msg("gate open")
		return Transition{
			Kind:       TransitionGateOpen,
			SpacesUsed: used,
			GateID:     head.GateID,
			QueueDepth: len(c.waiting),
		}, true
	}

	if used >= c.capacity {
		c.state = StateFullSignaled
		c.logger.Info().
			Int("spaces_used", used).
			Int("queue_depth", len(c.waiting)).
			Msg("car park full, closing gate")
		return Transition{
			Kind:       TransitionFull,
			SpacesUsed: used,
			QueueDepth: len(c.waiting),
		}, true
	}

	c.state = StateIdle
	return Transition{}, false
}

func (c *Controller) Capacity() int {
	return c.capacity
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) QueueDepth() int {
	return len(c.waiting)
}

// Waiting returns the queued gate ids, longest waiting first.
func (c *Controller) Waiting() []string {
	ids := make([]string, len(c.waiting))
	for i, req := range c.waiting {
		ids[i] = req.GateID
	}
	return ids
}
