package gate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T, capacity int, opts ...Option) *Processor {
	t.Helper()
	p, err := NewProcessor(capacity, opts...)
	require.NoError(t, err)
	p.Init()
	return p
}

func kinds(ts []Transition) []TransitionKind {
	out := make([]TransitionKind, len(ts))
	for i, t := range ts {
		out[i] = t.Kind
	}
	return out
}

func admissions(ts []Transition) []string {
	var out []string
	for _, t := range ts {
		if t.Kind == TransitionGateOpen {
			out = append(out, t.GateID)
		}
	}
	return out
}

func TestNewProcessorRejectsNonPositiveCapacity(t *testing.T) {
	_, err := NewProcessor(0)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewProcessor(-3)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestProcessorRequiresInit(t *testing.T) {
	p, err := NewProcessor(2)
	require.NoError(t, err)

	_, err = p.OnEvent(Arrival{})
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, 0, p.Snapshot().SpacesUsed)
}

func TestProcessorTutorialScenario(t *testing.T) {
	p := newTestProcessor(t, 10)

	var fill []Transition
	for i := 0; i < 10; i++ {
		ts, err := p.OnEvent(Arrival{})
		require.NoError(t, err)
		fill = append(fill, ts...)
	}
	require.Len(t, fill, 11)
	for i := 0; i < 10; i++ {
		assert.Equal(t, TransitionCarIn, fill[i].Kind)
		assert.Equal(t, i+1, fill[i].SpacesUsed)
	}
	assert.Equal(t, TransitionFull, fill[10].Kind, "the arrival that fills the park signals full")

	for _, id := range []string{"gate 1", "gate 1", "gate 2", "gate 1"} {
		ts, err := p.OnEvent(RequestEntry{GateID: id})
		require.NoError(t, err)
		require.Len(t, ts, 1)
		assert.Equal(t, TransitionQueued, ts[0].Kind)
	}
	assert.Equal(t, []string{"gate 1", "gate 1", "gate 2", "gate 1"}, p.Snapshot().Waiting)

	want := []string{"gate 1", "gate 1", "gate 2"}
	for i := 0; i < 3; i++ {
		out, err := p.OnEvent(Departure{})
		require.NoError(t, err)
		assert.Equal(t, []TransitionKind{TransitionCarOut, TransitionGateOpen}, kinds(out))
		assert.Equal(t, 9, out[0].SpacesUsed)
		assert.Equal(t, want[i], out[1].GateID)

		in, err := p.OnEvent(Arrival{})
		require.NoError(t, err)
		assert.Equal(t, []TransitionKind{TransitionCarIn, TransitionFull}, kinds(in))
		assert.Equal(t, 10, in[0].SpacesUsed)
	}

	status := p.Snapshot()
	assert.Equal(t, []string{"gate 1"}, status.Waiting)
	assert.Equal(t, 10, status.SpacesUsed)
	assert.Equal(t, StateFullSignaled, status.State)
	assert.Equal(t, uint64(20), status.Events)
}

func TestProcessorCapacityOneBoundary(t *testing.T) {
	p := newTestProcessor(t, 1)

	ts, err := p.OnEvent(Arrival{})
	require.NoError(t, err)
	assert.Equal(t, []TransitionKind{TransitionCarIn, TransitionFull}, kinds(ts))

	ts, err = p.OnEvent(RequestEntry{GateID: "gate 1"})
	require.NoError(t, err)
	assert.Equal(t, []TransitionKind{TransitionQueued}, kinds(ts))

	ts, err = p.OnEvent(Departure{})
	require.NoError(t, err)
	assert.Equal(t, []TransitionKind{TransitionCarOut, TransitionGateOpen}, kinds(ts))
	assert.Empty(t, p.Snapshot().Waiting)

	// Departure from an empty park is floored and silent.
	ts, err = p.OnEvent(Departure{})
	require.NoError(t, err)
	assert.Empty(t, ts)
	assert.Equal(t, 0, p.Snapshot().SpacesUsed)
	assert.Equal(t, StateIdle, p.Snapshot().State)
}

func TestProcessorRequestWithSpaceIsSilent(t *testing.T) {
	p := newTestProcessor(t, 3)

	ts, err := p.OnEvent(RequestEntry{GateID: "gate 1"})
	require.NoError(t, err)
	assert.Empty(t, ts)
	assert.Empty(t, p.Snapshot().Waiting)
}

func TestProcessorRejectsMalformedEventWithoutMutation(t *testing.T) {
	p := newTestProcessor(t, 1)
	_, err := p.OnEvent(Arrival{})
	require.NoError(t, err)
	before := p.Snapshot()

	_, err = p.OnEvent(RequestEntry{GateID: ""})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = p.OnEvent(nil)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, before, p.Snapshot())
	assert.Len(t, p.Journal(0), 2)
}

func TestProcessorOneAdmissionPerDeparture(t *testing.T) {
	p := newTestProcessor(t, 2)
	for i := 0; i < 2; i++ {
		_, err := p.OnEvent(Arrival{})
		require.NoError(t, err)
	}
	for _, id := range []string{"a", "b", "c"} {
		_, err := p.OnEvent(RequestEntry{GateID: id})
		require.NoError(t, err)
	}

	ts, err := p.OnEvent(Departure{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, admissions(ts))

	ts, err = p.OnEvent(Departure{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, admissions(ts))
	assert.Equal(t, []string{"c"}, p.Snapshot().Waiting)
}

func TestProcessorInitStartsOver(t *testing.T) {
	p := newTestProcessor(t, 1)
	_, _ = p.OnEvent(Arrival{})
	_, _ = p.OnEvent(RequestEntry{GateID: "a"})

	p.Init()

	status := p.Snapshot()
	assert.Equal(t, 0, status.SpacesUsed)
	assert.Empty(t, status.Waiting)
	assert.Equal(t, StateIdle, status.State)
	assert.Equal(t, uint64(0), status.Events)
	assert.Empty(t, p.Journal(0))
}

func TestProcessorJournalAndListeners(t *testing.T) {
	var seen []Record
	p := newTestProcessor(t, 1,
		WithJournalSize(3),
		WithListener(func(r Record) { seen = append(seen, r) }),
	)

	_, _ = p.OnEvent(Arrival{})                    // car_in, full
	_, _ = p.OnEvent(RequestEntry{GateID: "east"}) // queued
	_, _ = p.OnEvent(Departure{})                  // car_out, gate_open

	require.Len(t, seen, 5)
	for i, r := range seen {
		assert.Equal(t, uint64(i+1), r.Seq)
	}
	assert.Equal(t, "departure", seen[4].Event)
	assert.Equal(t, uint64(3), seen[4].EventSeq)

	recent := p.Journal(0)
	require.Len(t, recent, 3)
	assert.Equal(t, []uint64{3, 4, 5}, []uint64{recent[0].Seq, recent[1].Seq, recent[2].Seq})
	assert.Equal(t, TransitionGateOpen, recent[2].Transition.Kind)

	last := p.Journal(1)
	require.Len(t, last, 1)
	assert.Equal(t, uint64(5), last[0].Seq)
}

func TestProcessorListenerMayReadSnapshot(t *testing.T) {
	var used []int
	var p *Processor
	p = newTestProcessor(t, 5, WithListener(func(Record) {
		used = append(used, p.Snapshot().SpacesUsed)
	}))

	_, err := p.OnEvent(Arrival{})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, used)
}

func TestProcessorSerializesConcurrentProducers(t *testing.T) {
	p := newTestProcessor(t, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := p.OnEvent(Arrival{})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	status := p.Snapshot()
	assert.Equal(t, 400, status.SpacesUsed)
	assert.Equal(t, uint64(400), status.Events)

	records := p.Journal(0)
	require.Len(t, records, DefaultJournalSize)
	for i := 1; i < len(records); i++ {
		assert.Equal(t, records[i-1].Transition.SpacesUsed+1, records[i].Transition.SpacesUsed)
	}
}

func TestReplayTutorialScenario(t *testing.T) {
	p := newTestProcessor(t, 10)

	ts, err := Replay(p, TutorialScenario(10))
	require.NoError(t, err)

	assert.Equal(t, []string{"gate 1", "gate 1", "gate 2"}, admissions(ts))
	assert.Equal(t, []string{"gate 1"}, p.Snapshot().Waiting)

	full := 0
	for _, tr := range ts {
		if tr.Kind == TransitionFull {
			full++
		}
	}
	assert.Equal(t, 4, full)
}

func TestReplayStopsAtRejectedEvent(t *testing.T) {
	p := newTestProcessor(t, 2)

	ts, err := Replay(p, []Event{Arrival{}, RequestEntry{}, Arrival{}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, ts, 1)
	assert.Equal(t, 1, p.Snapshot().SpacesUsed)
}

func TestProcessorListenerWithConcurrentProducers(t *testing.T) {
	var (
		mu   sync.Mutex
		used []int
	)
	var p *Processor
	p = newTestProcessor(t, 1000, WithListener(func(Record) {
		status := p.Snapshot()
		mu.Lock()
		used = append(used, status.SpacesUsed)
		mu.Unlock()
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					_, err := p.OnEvent(Arrival{})
					assert.NoError(t, err)
				}
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent producers with a snapshot-reading listener did not finish")
	}

	require.Len(t, used, 200)
	// Listeners run in event order, so the observed occupancy never drops.
	for i := 1; i < len(used); i++ {
		assert.GreaterOrEqual(t, used[i], used[i-1])
	}
	assert.Equal(t, 200, p.Snapshot().SpacesUsed)
}

func TestProcessorSubscribe(t *testing.T) {
	p := newTestProcessor(t, 1)
	_, err := p.OnEvent(Arrival{})
	require.NoError(t, err)

	var seen []TransitionKind
	p.Subscribe(func(r Record) { seen = append(seen, r.Transition.Kind) })

	_, err = p.OnEvent(Departure{})
	require.NoError(t, err)
	assert.Equal(t, []TransitionKind{TransitionCarOut}, seen)
}

func TestProcessorRejectsNilPointerEvents(t *testing.T) {
	p := newTestProcessor(t, 2)

	for _, ev := range []Event{(*Arrival)(nil), (*Departure)(nil), (*RequestEntry)(nil)} {
		assert.NotPanics(t, func() {
			_, err := p.OnEvent(ev)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	status := p.Snapshot()
	assert.Equal(t, 0, status.SpacesUsed)
	assert.Equal(t, uint64(0), status.Events)
	assert.Empty(t, p.Journal(0))
}
