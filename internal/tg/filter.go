package tg

// FilterKind discriminates dialog filter variants.
type FilterKind uint8

const (
	// FilterDefault is the built-in "all chats" filter.
	FilterDefault FilterKind = iota
	// FilterCustom is a user-defined folder.
	FilterCustom
	// FilterChatlist is a shared folder: include-list only, no exclusions.
	FilterChatlist
)

// Category flag bits, as carried on the wire. The low five bits select peer
// categories; the icon fallback keys off them.
const (
	FilterFlagContacts    uint32 = 1 << 0
	FilterFlagNonContacts uint32 = 1 << 1
	FilterFlagGroups      uint32 = 1 << 2
	FilterFlagBroadcasts  uint32 = 1 << 3
	FilterFlagBots        uint32 = 1 << 4
	FilterFlagExcludeRead uint32 = 1 << 11
	FilterFlagUnmuted     uint32 = 1 << 12
)

// DialogFilter is a folder/filter specification.
type DialogFilter struct {
	Kind     FilterKind
	Title    string
	Emoticon string
	// Flags is the raw flag word; kept for icon resolution.
	Flags uint32

	Contacts    bool
	NonContacts bool
	Groups      bool
	Broadcasts  bool
	Bots        bool

	ExcludeMuted    bool
	ExcludeRead     bool
	ExcludeArchived bool

	IncludePeers []PeerRef
	ExcludePeers []PeerRef
}
