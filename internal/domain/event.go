package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Snapshot is the result of transforming one raw message: every series the
// payload contained plus the views derived from them.
type Snapshot struct {
	Series []Series
	Views  []View

	// Dropped holds the records discarded as malformed while normalizing.
	Dropped []*MalformedRecordError
}
