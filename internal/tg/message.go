package tg

// Message is the protocol message record. Optional parts are pointers.
type Message struct {
	ID        int32
	PeerID    PeerRef
	FromID    PeerRef
	Date      int32
	EditDate  int32
	Out       bool
	Body      string
	Entities  []Entity
	GroupedID int64
	Media     *Media
	FwdFrom   *ForwardHeader
	// Action is the service-action text of a service message
	// ("joined the group", "pinned a message", ...). Empty for regular messages.
	Action string
}

// EntityKind discriminates body markup entities.
type EntityKind uint8

const (
	EntityURL EntityKind = iota
	EntityBold
	EntityItalic
	EntityCode
	EntitySpoiler
)

// Entity is one markup span over the message body.
type Entity struct {
	Kind   EntityKind
	Offset int32
	Length int32
	URL    string
}

// ForwardHeader carries forwarded-from attribution.
type ForwardHeader struct {
	FromName string
	FromID   PeerRef
}

// MediaKind discriminates the closed set of media variants.
type MediaKind uint8

const (
	MediaNone MediaKind = iota
	MediaPhoto
	MediaContact
	MediaUnsupported
	MediaDocument
	MediaWebPage
	MediaVenue
	MediaGame
	MediaInvoice
	MediaGeo
	MediaGeoLive
	MediaPoll
	MediaDice
)

// Media is a tagged variant; only the fields of the active kind are set.
type Media struct {
	Kind    MediaKind
	Spoiler bool

	Photo *Photo

	// contact
	FirstName   string
	LastName    string
	PhoneNumber string

	Document *Document
	WebPage  *WebPage

	// venue/invoice title, invoice description
	Title       string
	Description string

	Game  *Game
	Geo   *GeoPoint
	Poll  *Poll
	Value string // dice
}

// Photo identifies a downloadable photo asset.
type Photo struct {
	ID         int64
	AccessHash int64
}

// DocAttrKind discriminates document attributes.
type DocAttrKind uint8

const (
	DocAttrFilename DocAttrKind = iota
	DocAttrAudio
	DocAttrVideo
)

// DocAttr is one document attribute.
type DocAttr struct {
	Kind     DocAttrKind
	FileName string
}

// Document identifies a downloadable document with its attributes.
type Document struct {
	ID         int64
	AccessHash int64
	Size       int64
	Attributes []DocAttr
}

// FileName returns the filename attribute, or empty when absent.
func (d *Document) FileName() string {
	if d == nil {
		return ""
	}
	for _, a := range d.Attributes {
		if a.Kind == DocAttrFilename {
			return a.FileName
		}
	}
	return ""
}

// WebPage is a link preview.
type WebPage struct {
	URL   string
	Title string
}

// Game is a game preview.
type Game struct {
	Title string
}

// GeoPoint is a location.
type GeoPoint struct {
	Long float64
	Lat  float64
}

// Poll is a poll preview.
type Poll struct {
	PublicVoters bool
}
