package domain

// Cursor is the pagination read position for one partition. Offset is the
// index of the next unread item; Total is the length of the associated
// ResultSet when the cursor was last written. 0 <= Offset <= Total holds
// after every completed engine operation.
type Cursor struct {
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ResultStore persists the most recent full search result per partition key.
// At most one ResultSet is live per partition; Put fully replaces, never
// appends.
type ResultStore interface {
	// Put overwrites the ResultSet for the partition with items, in order.
	Put(partition string, items []Perfume) error

	// Get returns the current ResultSet, or an empty slice if none exists.
	// Unreadable or corrupt persisted state degrades to empty rather than
	// surfacing the failure.
	Get(partition string) []Perfume
}

// CursorStore persists the read cursor per partition key.
type CursorStore interface {
	// Put atomically overwrites the cursor for the partition. The caller is
	// responsible for offset <= total.
	Put(partition string, offset, total int) error

	// Get returns the current cursor, or a zero cursor if none exists.
	// Degrades to the zero cursor on read failure.
	Get(partition string) Cursor
}
