package gate

const DefaultJournalSize = 256

// Record is a transition as stored in the journal.
type Record struct {
	Seq        uint64     `json:"seq"`
	EventSeq   uint64     `json:"event_seq"`
	Event      string     `json:"event"`
	Transition Transition `json:"transition"`
}

// journal keeps the most recent records in a fixed size ring.
type journal struct {
	records []Record
	next    int
	full    bool
	seq     uint64
}

func newJournal(size int) *journal {
	if size <= 0 {
		size = DefaultJournalSize
	}
	return &journal{records: make([]Record, size)}
}

func (j *journal) append(eventSeq uint64, kind EventKind, t Transition) Record {
	j.seq++
	rec := Record{Seq: j.seq, EventSeq: eventSeq, Event: kind.String(), Transition: t}
	j.records[j.next] = rec
	j.next = (j.next + 1) % len(j.records)
	if j.next == 0 {
		j.full = true
	}
	return rec
}

func (j *journal) len() int {
	if j.full {
		return len(j.records)
	}
	return j.next
}

// last returns up to limit records, oldest first. limit <= 0 means all.
func (j *journal) last(limit int) []Record {
	n := j.len()
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Record, 0, limit)
	start := j.next - limit
	if start < 0 {
		start += len(j.records)
	}
	for i := 0; i < limit; i++ {
		out = append(out, j.records[(start+i)%len(j.records)])
	}
	return out
}

func (j *journal) reset() {
	clear(j.records)
	j.next = 0
	j.full = false
	j.seq = 0
}
