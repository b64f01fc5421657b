package speech

// Progress tags carried by incremental-correction (wpgs) results. An append
// finalizes the previously-buffered pending tail; a replace rewrites it in
// full.
const (
	pgsAppend  = "apd"
	pgsReplace = "rpl"
)

// Transcript accumulates incremental recognition results into a committed
// prefix and a pending tail. Updates arrive strictly ordered on one reader
// goroutine, so no locking is needed.
type Transcript struct {
	committed string
	pending   string
}

// Apply folds one result segment into the transcript and returns the text to
// report: always committed prefix plus pending tail.
func (t *Transcript) Apply(pgs, text string) string {
	switch pgs {
	case pgsReplace:
		t.pending = text
	case pgsAppend:
		t.committed += t.pending
		t.pending = text
	default:
		// Without a correction tag the segment is final as delivered.
		t.committed += t.pending + text
		t.pending = ""
	}
	return t.Text()
}

// Text returns the currently reportable transcript.
func (t *Transcript) Text() string {
	return t.committed + t.pending
}
