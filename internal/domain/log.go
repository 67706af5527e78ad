package domain

// Record is one ingested, parsed and sequence-numbered log line.
// Records are immutable once appended to the store.
type Record struct {
	Seq   int      `json:"seq"`
	Data  any      `json:"data"`
	Index []string `json:"index"`
}

// Entry is a Record as delivered to a viewer. Pos is the record's
// 1-based position within the viewer's filtered sequence.
type Entry struct {
	Seq   int      `json:"seq"`
	Pos   int      `json:"pos"`
	Data  any      `json:"data"`
	Index []string `json:"index,omitempty"`
}

// NewEntry wraps a record with its filtered position
func NewEntry(rec Record, pos int) Entry {
	return Entry{
		Seq:   rec.Seq,
		Pos:   pos,
		Data:  rec.Data,
		Index: rec.Index,
	}
}

// LogStats contains statistics about the log store
type LogStats struct {
	TotalRecords int
	Viewers      int
	IndexKeys    bool
}
