package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Range describes a contiguous block of rows touched by one mutation.
// Published after the mutation is applied, so observers always see the
// collection in a consistent post-mutation state.
type Range struct {
	First int
	Last  int
}

// Move describes a single row relocation.
type Move struct {
	From int
	To   int
}

// Index points at one mutated row.
type Index struct {
	Index int
}

// Scroll asks the presentation layer to reveal a row.
type Scroll struct {
	Index int
}

// AssetReady announces a processed asset on disk.
type AssetReady struct {
	AssetID int64
	Path    string
}

// Notification is the projection handed to the OS notification layer.
type Notification struct {
	PeerID     int64
	Title      string
	SenderName string
	Preview    string
	Silent     bool
}

// DownloadState reports document download progress for one message.
// State is 0 when started, 1 when finished, -1 when canceled.
type DownloadState struct {
	MessageID int32
	State     int
	Path      string
}
