package storage

// Revision is the write counter and last writer of one key. Stores that
// track revisions let a watcher tell foreign writes from its own.
type Revision struct {
	Key      Key
	Revision int64
	Writer   string
}
