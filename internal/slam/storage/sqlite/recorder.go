package sqlite

// Recorder buffers step rows for one run and writes them in batches.
type Recorder struct {
	store *RunStore
	runID string
	batch int
	buf   []StepRecord
	total int
}

// NewRecorder returns a Recorder flushing every batch rows (at least 1).
func NewRecorder(store *RunStore, runID string, batch int) *Recorder {
	if batch < 1 {
		batch = 1
	}
	return &Recorder{store: store, runID: runID, batch: batch, buf: make([]StepRecord, 0, batch)}
}

// Add queues rec, flushing when the batch is full.
func (r *Recorder) Add(rec StepRecord) error {
	r.buf = append(r.buf, rec)
	if len(r.buf) >= r.batch {
		return r.Flush()
	}
	return nil
}

// Flush writes any queued rows.
func (r *Recorder) Flush() error {
	if len(r.buf) == 0 {
		return nil
	}
	if err := r.store.RecordSteps(r.runID, r.buf); err != nil {
		return err
	}
	r.total += len(r.buf)
	r.buf = r.buf[:0]
	return nil
}

// Written returns how many rows have been flushed.
func (r *Recorder) Written() int {
	return r.total
}
