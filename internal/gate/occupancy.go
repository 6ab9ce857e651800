package gate

import "github.com/rs/zerolog"

// Occupancy is the read-only view of the car park the controller decides on.
type Occupancy interface {
	SpacesUsed() int
}

// OccupancyCounter counts the cars inside the car park. It knows nothing
// about gates or queueing.
type OccupancyCounter struct {
	spacesUsed int
	logger     zerolog.Logger
}

func NewOccupancyCounter(logger zerolog.Logger) *OccupancyCounter {
	return &OccupancyCounter{logger: logger}
}

func (c *OccupancyCounter) Reset() {
	c.spacesUsed = 0
}

func (c *OccupancyCounter) RecordArrival() Transition {
	c.spacesUsed++
	c.logger.Info().Int("spaces_used", c.spacesUsed).Msg("car in")
	return Transition{Kind: TransitionCarIn, SpacesUsed: c.spacesUsed}
}

// RecordDeparture frees one space. Occupancy never drops below zero: a
// departure reported for an empty car park is ignored and ok is false.
func (c *OccupancyCounter) RecordDeparture() (t Transition, ok bool) {
	if c.spacesUsed == 0 {
		c.logger.Warn().Int("spaces_used", c.spacesUsed).Msg("departure ignored, car park already empty")
		return Transition{}, false
	}
	c.spacesUsed--
	c.logger.Info().Int("spaces_used", c.spacesUsed).Msg("car out")
	return Transition{Kind: TransitionCarOut, SpacesUsed: c.spacesUsed}, true
}

func (c *OccupancyCounter) SpacesUsed() int {
	return c.spacesUsed
}
