package tg

// PeerKind discriminates the closed set of addressable peer kinds.
type PeerKind uint8

const (
	PeerNone PeerKind = iota
	PeerUser
	PeerChat
	PeerChannel
)

// PeerRef identifies a peer by kind and numeric id.
type PeerRef struct {
	Kind PeerKind
	ID   int64
}

// Valid reports whether the reference points at a real peer.
func (r PeerRef) Valid() bool {
	return r.Kind != PeerNone && r.ID != 0
}

// Equal reports whether two references address the same peer.
func (r PeerRef) Equal(o PeerRef) bool {
	return r.Kind == o.Kind && r.ID == o.ID
}

// User is the protocol user record. Absent fields stay zero.
type User struct {
	ID         int64
	AccessHash int64
	FirstName  string
	LastName   string
	PhotoID    int64
	Contact    bool
	Bot        bool
}

// Ref returns the peer reference for the user.
func (u *User) Ref() PeerRef { return PeerRef{Kind: PeerUser, ID: u.ID} }

// Chat is the protocol chat/channel record.
type Chat struct {
	ID         int64
	AccessHash int64
	Title      string
	Broadcast  bool // channel feed
	Megagroup  bool
	PhotoID    int64
	// ParticipantsCount is nil when the server did not report it.
	ParticipantsCount *int32
}

// Ref returns the peer reference for the chat.
func (c *Chat) Ref() PeerRef {
	if c.Broadcast || c.Megagroup {
		return PeerRef{Kind: PeerChannel, ID: c.ID}
	}
	return PeerRef{Kind: PeerChat, ID: c.ID}
}

// Dialog is one entry of a dialogs-fetch payload.
type Dialog struct {
	Peer            PeerRef
	TopMessage      int32
	Pinned          bool
	Silent          bool
	UnreadMark      bool
	UnreadCount     int32
	UnreadMentions  int32
	UnreadReactions int32
	FolderID        int32
	ReadInboxMaxID  int32
	ReadOutboxMaxID int32
}

// PeerRecord is a resolved peer united with its dialog state. It is what
// engines keep on rows, what the filter matcher evaluates, and what outbound
// requests address.
type PeerRecord struct {
	Ref        PeerRef
	AccessHash int64

	// user fields
	FirstName string
	LastName  string
	Contact   bool
	Bot       bool

	// chat/channel fields
	Title             string
	Broadcast         bool
	Megagroup         bool
	ParticipantsCount *int32

	PhotoID int64

	// dialog state
	Pinned          bool
	Silent          bool
	UnreadMark      bool
	UnreadCount     int32
	UnreadMentions  int32
	UnreadReactions int32
	FolderID        int32
	ReadInboxMaxID  int32
	ReadOutboxMaxID int32
}

// RecordFromUser projects a user record into a PeerRecord.
func RecordFromUser(u *User) *PeerRecord {
	if u == nil {
		return nil
	}
	return &PeerRecord{
		Ref:        u.Ref(),
		AccessHash: u.AccessHash,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Contact:    u.Contact,
		Bot:        u.Bot,
		PhotoID:    u.PhotoID,
	}
}

// RecordFromChat projects a chat record into a PeerRecord.
func RecordFromChat(c *Chat) *PeerRecord {
	if c == nil {
		return nil
	}
	return &PeerRecord{
		Ref:               c.Ref(),
		AccessHash:        c.AccessHash,
		Title:             c.Title,
		Broadcast:         c.Broadcast,
		Megagroup:         c.Megagroup,
		ParticipantsCount: c.ParticipantsCount,
		PhotoID:           c.PhotoID,
	}
}

// ApplyDialog merges dialog state into the record, returning the receiver.
func (r *PeerRecord) ApplyDialog(d *Dialog) *PeerRecord {
	if d == nil {
		return r
	}
	r.Pinned = d.Pinned
	r.Silent = d.Silent
	r.UnreadMark = d.UnreadMark
	r.UnreadCount = d.UnreadCount
	r.UnreadMentions = d.UnreadMentions
	r.UnreadReactions = d.UnreadReactions
	r.FolderID = d.FolderID
	r.ReadInboxMaxID = d.ReadInboxMaxID
	r.ReadOutboxMaxID = d.ReadOutboxMaxID
	return r
}

// Valid reports whether the record addresses a real peer.
func (r *PeerRecord) Valid() bool {
	return r != nil && r.Ref.Valid()
}

// IsUser reports whether the record is an individual user.
func (r *PeerRecord) IsUser() bool {
	return r != nil && r.Ref.Kind == PeerUser
}

// IsChat reports whether the record is any multi-user peer.
func (r *PeerRecord) IsChat() bool {
	return r != nil && (r.Ref.Kind == PeerChat || r.Ref.Kind == PeerChannel)
}

// IsChannel reports whether the record is a broadcast channel.
func (r *PeerRecord) IsChannel() bool {
	return r != nil && r.Ref.Kind == PeerChannel && r.Broadcast
}

// IsGroup reports whether the record is a basic group or megagroup.
func (r *PeerRecord) IsGroup() bool {
	if r == nil {
		return false
	}
	return r.Ref.Kind == PeerChat || (r.Ref.Kind == PeerChannel && r.Megagroup)
}

// DisplayName returns "first last" for users and the title otherwise.
func (r *PeerRecord) DisplayName() string {
	if r == nil {
		return ""
	}
	if r.IsUser() {
		if r.LastName == "" {
			return r.FirstName
		}
		return r.FirstName + " " + r.LastName
	}
	return r.Title
}
