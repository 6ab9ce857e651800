package gate

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Status is a point in time view of the gate.
type Status struct {
	Capacity   int      `json:"capacity"`
	SpacesUsed int      `json:"spaces_used"`
	Available  int      `json:"available"`
	State      State    `json:"state"`
	Waiting    []string `json:"waiting"`
	Events     uint64   `json:"events"`
}

type Option func(*Processor)

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

func WithJournalSize(size int) Option {
	return func(p *Processor) {
		p.journalSize = size
	}
}

// WithListener registers a callback that receives every journal record,
// in order, once the event that produced it has been fully applied.
// Listeners must not deliver events to the processor themselves.
func WithListener(fn func(Record)) Option {
	return func(p *Processor) {
		p.listeners = append(p.listeners, fn)
	}
}

// handled is what a direct handler reports back to the dispatcher.
type handled struct {
	transitions []Transition
	propagate   bool
}

// Processor routes events to the counter and the controller one at a
// time. Concurrent callers are serialized, so the core always sees a
// single total order of events.
type Processor struct {
	mu          sync.Mutex
	notifyMu    sync.Mutex
	counter     *OccupancyCounter
	controller  *Controller
	journal     *journal
	listeners   []func(Record)
	logger      zerolog.Logger
	journalSize int
	initialized bool
	events      uint64
}

func NewProcessor(capacity int, opts ...Option) (*Processor, error) {
	p := &Processor{
		logger:      zerolog.Nop(),
		journalSize: DefaultJournalSize,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.counter = NewOccupancyCounter(p.logger.With().Str("component", "occupancy").Logger())
	controller, err := NewController(p.counter, capacity, p.logger.With().Str("component", "controller").Logger())
	if err != nil {
		return nil, err
	}
	p.controller = controller
	p.journal = newJournal(p.journalSize)

	return p, nil
}

// Init puts the processor in its starting state: empty car park, empty
// queue. It must be called before the first event and may be called again
// to start over.
func (p *Processor) Init() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.counter.Reset()
	p.controller.Reset()
	p.journal.reset()
	p.events = 0
	p.initialized = true

	p.logger.Info().Int("capacity", p.controller.Capacity()).Msg("gate processor initialized")
}

// OnEvent applies one event and returns the transitions it caused, in
// emission order. Malformed events are rejected before any state changes.
func (p *Processor) OnEvent(ev Event) ([]Transition, error) {
	if err := Validate(ev); err != nil {
		return nil, err
	}

	// notifyMu is always taken before mu and held until listeners have
	// run, so records reach listeners in event order. mu is released
	// first, which lets listeners read Snapshot or Journal.
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if !p.initialized {
		p.mu.Unlock()
		return nil, ErrNotInitialized
	}

	p.events++
	seq := p.events

	result := p.dispatch(ev)
	transitions := result.transitions
	if result.propagate {
		if t, ok := p.controller.Reevaluate(); ok {
			transitions = append(transitions, t)
		}
	}

	records := make([]Record, 0, len(transitions))
	for _, t := range transitions {
		records = append(records, p.journal.append(seq, ev.Kind(), t))
	}
	p.mu.Unlock()

	for _, rec := range records {
		for _, fn := range p.listeners {
			fn(rec)
		}
	}

	return transitions, nil
}

// dispatch runs the direct handler for ev. Occupancy changes ask for a
// re-evaluation, entry requests do not.
func (p *Processor) dispatch(ev Event) handled {
	switch e := ev.(type) {
	case Arrival, *Arrival:
		return handled{transitions: []Transition{p.counter.RecordArrival()}, propagate: true}
	case Departure, *Departure:
		var out []Transition
		if t, ok := p.counter.RecordDeparture(); ok {
			out = append(out, t)
		}
		return handled{transitions: out, propagate: true}
	case RequestEntry:
		return p.requestEntry(e)
	case *RequestEntry:
		return p.requestEntry(*e)
	default:
		// Validate only lets the closed set through.
		panic(fmt.Sprintf("gate: unhandled event type %T", ev))
	}
}

func (p *Processor) requestEntry(req RequestEntry) handled {
	var out []Transition
	if t, ok := p.controller.RequestEntry(req); ok {
		out = append(out, t)
	}
	return handled{transitions: out, propagate: false}
}

// Subscribe adds a listener to a running processor. It waits for any
// event in flight to finish notifying.
func (p *Processor) Subscribe(fn func(Record)) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *Processor) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	used := p.counter.SpacesUsed()
	capacity := p.controller.Capacity()
	available := capacity - used
	if available < 0 {
		available = 0
	}
	return Status{
		Capacity:   capacity,
		SpacesUsed: used,
		Available:  available,
		State:      p.controller.State(),
		Waiting:    p.controller.Waiting(),
		Events:     p.events,
	}
}

// Journal returns up to limit of the most recent records, oldest first.
func (p *Processor) Journal(limit int) []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.journal.last(limit)
}

func (p *Processor) Capacity() int {
	return p.controller.Capacity()
}
