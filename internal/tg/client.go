package tg

// Client is the boundary to the remote protocol client. Implementations own
// connection, encryption and framing; this layer only sees typed requests that
// return correlation ids and typed events delivered on arbitrary threads.
type Client interface {
	// AddEventHandler registers a handler for inbound events and returns a
	// function that removes it again. Handlers may be invoked concurrently
	// from the client's own threads.
	AddEventHandler(handler func(Event)) (remove func())

	// Authorized reports whether an identity is authenticated.
	Authorized() bool
	// UserID returns the authenticated user id, or 0.
	UserID() int64
	// SessionDir returns the per-identity session directory.
	SessionDir() string

	// FetchDialogs requests a dialogs page. A zero offset fetches from the
	// start. Returns the correlation id.
	FetchDialogs(off DialogOffset, limit int32) int64
	// FetchFolders requests the dialog filter list. Returns the correlation id.
	FetchFolders() int64
	// FetchHistory requests a history page for the peer. Returns the
	// correlation id.
	FetchHistory(peer *PeerRecord, offsetID, addOffset, limit int32) int64

	// DownloadFile starts an asynchronous download of the referenced file to
	// destPath. Returns the correlation id.
	DownloadFile(destPath string, ref FileRef) int64
	// CancelDownload cancels an in-flight download.
	CancelDownload(requestID int64)

	// SendMessage sends a message, returning the provisional correlation id
	// that the eventual ShortSentUpdate echoes back.
	SendMessage(peer *PeerRecord, body string, media *InputMedia) int64
	// UploadFile starts an asynchronous upload. Returns the upload id.
	UploadFile(path string) int64
	// CancelUpload cancels an in-flight upload.
	CancelUpload(uploadID int64)
}

// DialogOffset is the dialogs pagination continuation token. The zero value
// means "from the start".
type DialogOffset struct {
	Date int32
	ID   int32
	Peer PeerRef
}

// IsZero reports whether the offset is the start-of-list sentinel.
func (o DialogOffset) IsZero() bool {
	return o.Date == 0 && o.ID == 0 && !o.Peer.Valid()
}

// FileRef references a downloadable file: exactly one field is set.
type FileRef struct {
	Peer     *PeerRecord // profile photo download
	Photo    *Photo
	Document *Document
}

// InputFile is the opaque descriptor a completed upload yields.
type InputFile struct {
	ID    int64
	Parts int32
	Name  string
}

// InputMediaKind discriminates pending outgoing media.
type InputMediaKind uint8

const (
	InputMediaNone InputMediaKind = iota
	InputMediaPhoto
	InputMediaDocument
)

// InputMedia is the pending outgoing-media object attached to the next send.
type InputMedia struct {
	Kind       InputMediaKind
	File       *InputFile
	Attributes []DocAttr
}

// DialogsKind discriminates dialogs-fetch response variants.
type DialogsKind uint8

const (
	// DialogsFull carries the complete remainder of the list.
	DialogsFull DialogsKind = iota
	// DialogsSlice carries one page plus a continuation offset.
	DialogsSlice
	// DialogsNotModified carries nothing new.
	DialogsNotModified
)

// DialogsPayload is the body of a dialogs-fetch response.
type DialogsPayload struct {
	Kind     DialogsKind
	Dialogs  []*Dialog
	Messages []*Message
	Users    []*User
	Chats    []*Chat
	// Offset is the server continuation for a slice response.
	Offset DialogOffset
}

// HistoryPayload is the body of a history-fetch response. Messages are in
// server order, newest first.
type HistoryPayload struct {
	Messages []*Message
	Users    []*User
	Chats    []*Chat
}

// UpdateKind discriminates push updates delivered with full message records.
type UpdateKind uint8

const (
	UpdateNewMessage UpdateKind = iota
	UpdateNewChannelMessage
	UpdateEditMessage
	UpdateEditChannelMessage
	UpdateDeleteMessages
	UpdateDeleteChannelMessages
)

// Update is one push update record.
type Update struct {
	Kind UpdateKind
	// Message is set for new/edit kinds.
	Message *Message
	// MessageIDs is set for delete kinds.
	MessageIDs []int32
	// ChannelID scopes channel-delete updates.
	ChannelID int64
}

// ShortKind discriminates abbreviated update records.
type ShortKind uint8

const (
	// ShortSentMessage is the server echo for a message this client sent.
	ShortSentMessage ShortKind = iota
	// ShortMessage is an abbreviated one-to-one message update.
	ShortMessage
	// ShortChatMessage is an abbreviated group message update.
	ShortChatMessage
)

// ShortUpdate is an abbreviated push update without resolved peers.
type ShortUpdate struct {
	Kind   ShortKind
	ID     int32
	UserID int64
	ChatID int64
	FromID int64
	Out    bool
	Date   int32
	Body   string
	Media  *Media
}

// Inbound events. Each is delivered through Client.AddEventHandler.
type (
	// AuthorizedEvent fires when an identity finishes authenticating.
	AuthorizedEvent struct {
		UserID int64
	}

	// DialogsEvent answers FetchDialogs.
	DialogsEvent struct {
		Payload   *DialogsPayload
		RequestID int64
	}

	// FoldersEvent answers FetchFolders.
	FoldersEvent struct {
		Filters   []*DialogFilter
		RequestID int64
	}

	// HistoryEvent answers FetchHistory.
	HistoryEvent struct {
		Payload   *HistoryPayload
		RequestID int64
	}

	// UpdateEvent delivers a push update with its recently-seen peer batches.
	UpdateEvent struct {
		Update    *Update
		RequestID int64
		Users     []*User
		Chats     []*Chat
		Date      int32
		Seq       int32
		SeqStart  int32
	}

	// ShortUpdateEvent delivers an abbreviated push update. For
	// ShortSentMessage the RequestID is the provisional id SendMessage
	// returned.
	ShortUpdateEvent struct {
		Update    *ShortUpdate
		RequestID int64
	}

	// FileDownloadedEvent answers DownloadFile.
	FileDownloadedEvent struct {
		RequestID int64
		Path      string
	}

	// FileDownloadCanceledEvent confirms CancelDownload.
	FileDownloadCanceledEvent struct {
		RequestID int64
		Path      string
	}

	// UploadProgressEvent reports upload progress, percent in [0,100].
	UploadProgressEvent struct {
		UploadID  int64
		Processed int64
		Total     int64
		Percent   int32
	}

	// UploadedEvent answers UploadFile with the resulting file descriptor.
	UploadedEvent struct {
		UploadID int64
		File     *InputFile
	}

	// UploadCanceledEvent confirms CancelUpload.
	UploadCanceledEvent struct {
		UploadID int64
	}
)

// Event is any of the inbound event types above.
type Event any
