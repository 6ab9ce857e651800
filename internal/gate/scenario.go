package gate

// TutorialScenario fills a car park of the given capacity, queues four
// cars at two gates and then lets three cars swap out and in.
func TutorialScenario(capacity int) []Event {
	events := make([]Event, 0, capacity+10)
	for i := 0; i < capacity; i++ {
		events = append(events, Arrival{})
	}
	events = append(events,
		RequestEntry{GateID: "gate 1"},
		RequestEntry{GateID: "gate 1"},
		RequestEntry{GateID: "gate 2"},
		RequestEntry{GateID: "gate 1"},
	)
	for i := 0; i < 3; i++ {
		events = append(events, Departure{}, Arrival{})
	}
	return events
}

// Replay feeds events to the processor in order and collects every
// transition. It stops at the first rejected event.
func Replay(p *Processor, events []Event) ([]Transition, error) {
	var all []Transition
	for _, ev := range events {
		ts, err := p.OnEvent(ev)
		if err != nil {
			return all, err
		}
		all = append(all, ts...)
	}
	return all, nil
}
