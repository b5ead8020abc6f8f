package dialogs

import (
	"testing"

	"github.com/pocketgram/core/internal/bus"
	"github.com/pocketgram/core/internal/folders"
	"github.com/pocketgram/core/internal/peers"
	"github.com/pocketgram/core/internal/tg"
	"github.com/pocketgram/core/internal/tg/tgtest"
	"go.uber.org/zap"
)

func testEngine(t *testing.T) (*Engine, *tgtest.Client, *bus.Bus) {
	t.Helper()
	client := tgtest.New(t.TempDir())
	b := bus.New()
	e := NewEngine(b, zap.NewNop(), peers.NewPool(), nil, 40)
	e.SetClient(client)
	return e, client, b
}

func user(id int64, first, last string) *tg.User {
	return &tg.User{ID: id, FirstName: first, LastName: last}
}

func dialog(peer tg.PeerRef, top int32, pinned bool) *tg.Dialog {
	return &tg.Dialog{Peer: peer, TopMessage: top, Pinned: pinned}
}

func message(id int32, peer, from tg.PeerRef, body string) *tg.Message {
	return &tg.Message{ID: id, PeerID: peer, FromID: from, Date: 1700000000, Body: body}
}

// fullPage answers the latest fetch with a terminal page.
func fullPage(client *tgtest.Client, p *tg.DialogsPayload) {
	p.Kind = tg.DialogsFull
	client.Emit(tg.DialogsEvent{Payload: p, RequestID: client.LastRequestID()})
}

func userRef(id int64) tg.PeerRef { return tg.PeerRef{Kind: tg.PeerUser, ID: id} }

func TestPaginationChainsUntilExhausted(t *testing.T) {
	e, client, _ := testEngine(t)

	if len(client.DialogFetches) != 1 {
		t.Fatalf("got %d fetches after attach, want 1", len(client.DialogFetches))
	}
	if !client.DialogFetches[0].Off.IsZero() || client.DialogFetches[0].Limit != 40 {
		t.Errorf("first fetch = %+v", client.DialogFetches[0])
	}

	// Full first batch: a slice response with a continuation offset.
	first := &tg.DialogsPayload{
		Kind:   tg.DialogsSlice,
		Offset: tg.DialogOffset{Date: 100, ID: 40, Peer: userRef(40)},
	}
	for i := int64(1); i <= 40; i++ {
		first.Dialogs = append(first.Dialogs, dialog(userRef(i), int32(i), false))
		first.Users = append(first.Users, user(i, "U", ""))
	}
	client.Emit(tg.DialogsEvent{Payload: first, RequestID: client.LastRequestID()})

	// The engine chains the next fetch with the server offset.
	if len(client.DialogFetches) != 2 {
		t.Fatalf("got %d fetches, want 2 (chained)", len(client.DialogFetches))
	}
	if client.DialogFetches[1].Off != first.Offset {
		t.Errorf("chained fetch offset = %+v", client.DialogFetches[1].Off)
	}

	// Short terminal page.
	second := &tg.DialogsPayload{}
	for i := int64(41); i <= 50; i++ {
		second.Dialogs = append(second.Dialogs, dialog(userRef(i), int32(i), false))
		second.Users = append(second.Users, user(i, "U", ""))
	}
	fullPage(client, second)

	if got := len(e.Rows()); got != 50 {
		t.Errorf("got %d rows, want 50", got)
	}
	if len(client.DialogFetches) != 2 {
		t.Errorf("got %d fetches, want 2 (exhausted)", len(client.DialogFetches))
	}

	e.FetchNext()
	if len(client.DialogFetches) != 2 {
		t.Errorf("FetchNext after exhaustion issued a request")
	}
}

func TestStaleDialogsResponseDropped(t *testing.T) {
	e, client, _ := testEngine(t)

	p := &tg.DialogsPayload{
		Kind:    tg.DialogsFull,
		Dialogs: []*tg.Dialog{dialog(userRef(1), 1, false)},
		Users:   []*tg.User{user(1, "A", "")},
	}
	client.Emit(tg.DialogsEvent{Payload: p, RequestID: 999})

	if len(e.Rows()) != 0 {
		t.Error("stale response should not add rows")
	}
}

func TestRowProjection(t *testing.T) {
	e, client, _ := testEngine(t)

	count := int32(250)
	p := &tg.DialogsPayload{
		Dialogs: []*tg.Dialog{
			dialog(userRef(1), 10, false),
			dialog(tg.PeerRef{Kind: tg.PeerChannel, ID: 2}, 11, false),
		},
		Users: []*tg.User{user(1, "Ada", "Lovelace"), user(3, "Bob", "")},
		Chats: []*tg.Chat{{ID: 2, Title: "Gophers", Broadcast: true, ParticipantsCount: &count}},
		Messages: []*tg.Message{
			{
				ID: 10, PeerID: userRef(1), FromID: userRef(3),
				Date: 1700000000, Body: "hi",
				Media: &tg.Media{Kind: tg.MediaPhoto, Photo: &tg.Photo{ID: 5}},
			},
			message(11, tg.PeerRef{Kind: tg.PeerChannel, ID: 2}, tg.PeerRef{}, "news"),
		},
	}
	fullPage(client, p)

	rows := e.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	u := rows[0]
	if u.Title != "Ada Lovelace" || u.Tooltip != "user" {
		t.Errorf("user row = %q/%q", u.Title, u.Tooltip)
	}
	if u.MessageSenderName != "Bob: " {
		t.Errorf("sender prefix = %q", u.MessageSenderName)
	}
	if u.MessageText != "hi, Attachment" {
		t.Errorf("message text = %q", u.MessageText)
	}
	if u.ThumbnailText != "AL" {
		t.Errorf("thumbnail text = %q", u.ThumbnailText)
	}

	c := rows[1]
	if c.Title != "Gophers" || c.Tooltip != "250 subscribers" {
		t.Errorf("channel row = %q/%q", c.Title, c.Tooltip)
	}
	if c.MessageText != "news" || c.MessageSenderName != "" {
		t.Errorf("channel message = %q sender %q", c.MessageText, c.MessageSenderName)
	}
}

func TestPushUpdateReorders(t *testing.T) {
	e, client, b := testEngine(t)

	p := &tg.DialogsPayload{
		Dialogs: []*tg.Dialog{
			dialog(userRef(1), 1, true),
			dialog(userRef(2), 2, false),
			dialog(userRef(3), 3, false),
			dialog(userRef(4), 4, false),
		},
		Users: []*tg.User{user(1, "A", ""), user(2, "B", ""), user(3, "C", ""), user(4, "D", "")},
	}
	fullPage(client, p)

	ch, unsub := b.Subscribe("dialogs.row_moved", 10)
	defer unsub()
	notify, nunsub := b.Subscribe("notify.", 10)
	defer nunsub()

	client.Emit(tg.UpdateEvent{
		Update: &tg.Update{
			Kind:    tg.UpdateNewMessage,
			Message: message(99, userRef(4), userRef(4), "ping"),
		},
		Users: []*tg.User{user(4, "D", "")},
	})

	rows := e.Rows()
	order := []int64{1, 4, 2, 3}
	for i, want := range order {
		if rows[i].Peer.Ref.ID != want {
			t.Fatalf("row %d = peer %d, want %d", i, rows[i].Peer.Ref.ID, want)
		}
	}
	if rows[1].MessageText != "ping" {
		t.Errorf("moved row text = %q", rows[1].MessageText)
	}

	select {
	case evt := <-ch:
		mv := evt.Payload.(bus.Move)
		if mv.From != 3 || mv.To != 1 {
			t.Errorf("move = %+v, want 3->1", mv)
		}
	default:
		t.Error("no row_moved event")
	}

	select {
	case evt := <-notify:
		n := evt.Payload.(bus.Notification)
		if n.PeerID != 4 || n.Preview != "ping" {
			t.Errorf("notification = %+v", n)
		}
	default:
		t.Error("no notify.message event")
	}
}

func TestPushUpdatePinnedRowStays(t *testing.T) {
	e, client, _ := testEngine(t)

	p := &tg.DialogsPayload{
		Dialogs: []*tg.Dialog{
			dialog(userRef(1), 1, true),
			dialog(userRef(2), 2, false),
		},
		Users: []*tg.User{user(1, "A", ""), user(2, "B", "")},
	}
	fullPage(client, p)

	client.Emit(tg.UpdateEvent{
		Update: &tg.Update{
			Kind:    tg.UpdateNewMessage,
			Message: message(99, userRef(1), userRef(1), "pinned ping"),
		},
		Users: []*tg.User{user(1, "A", "")},
	})

	rows := e.Rows()
	if rows[0].Peer.Ref.ID != 1 {
		t.Error("pinned row should not move")
	}
	if rows[0].MessageText != "pinned ping" {
		t.Errorf("pinned row text = %q", rows[0].MessageText)
	}
}

func TestPushSuppressedDuringPagination(t *testing.T) {
	e, client, _ := testEngine(t)

	// Slice response keeps pagination open.
	p := &tg.DialogsPayload{
		Kind:    tg.DialogsSlice,
		Offset:  tg.DialogOffset{Date: 1, ID: 1, Peer: userRef(1)},
		Dialogs: []*tg.Dialog{dialog(userRef(1), 1, false)},
		Users:   []*tg.User{user(1, "A", "")},
	}
	client.Emit(tg.DialogsEvent{Payload: p, RequestID: client.LastRequestID()})

	client.Emit(tg.UpdateEvent{
		Update: &tg.Update{
			Kind:    tg.UpdateNewMessage,
			Message: message(99, userRef(1), userRef(1), "early"),
		},
	})

	if rows := e.Rows(); rows[0].MessageText == "early" {
		t.Error("push processed before pagination completed")
	}
}

func TestUnknownConversationDropped(t *testing.T) {
	e, client, _ := testEngine(t)

	fullPage(client, &tg.DialogsPayload{
		Dialogs: []*tg.Dialog{dialog(userRef(1), 1, false)},
		Users:   []*tg.User{user(1, "A", "")},
	})

	client.Emit(tg.UpdateEvent{
		Update: &tg.Update{
			Kind:    tg.UpdateNewMessage,
			Message: message(99, userRef(42), userRef(42), "who"),
		},
	})

	if got := len(e.Rows()); got != 1 {
		t.Errorf("got %d rows, want 1 (unknown peer dropped)", got)
	}
}

func TestShortUpdate(t *testing.T) {
	e, client, _ := testEngine(t)

	fullPage(client, &tg.DialogsPayload{
		Dialogs: []*tg.Dialog{
			dialog(userRef(1), 1, false),
			dialog(userRef(2), 2, false),
		},
		Users: []*tg.User{user(1, "A", ""), user(2, "Bea", "")},
	})

	client.Emit(tg.ShortUpdateEvent{Update: &tg.ShortUpdate{
		Kind:   tg.ShortMessage,
		ID:     77,
		UserID: 2,
		Date:   1700000100,
		Body:   "short hello",
	}})

	rows := e.Rows()
	if rows[0].Peer.Ref.ID != 2 {
		t.Fatal("short update should float the row up")
	}
	if rows[0].MessageText != "short hello" {
		t.Errorf("row text = %q", rows[0].MessageText)
	}
	if rows[0].MessageSenderName != "Bea: " {
		t.Errorf("sender prefix = %q", rows[0].MessageSenderName)
	}
}

func TestAvatarReadyPatchesOneRow(t *testing.T) {
	e, client, b := testEngine(t)

	fullPage(client, &tg.DialogsPayload{
		Dialogs: []*tg.Dialog{dialog(userRef(1), 1, false), dialog(userRef(2), 2, false)},
		Users: []*tg.User{
			{ID: 1, FirstName: "A", PhotoID: 500},
			{ID: 2, FirstName: "B", PhotoID: 500},
		},
	})

	ch, unsub := b.Subscribe("dialogs.row_changed", 10)
	defer unsub()

	e.AvatarReady(500, "/tmp/a.png")

	rows := e.Rows()
	if rows[0].Avatar != "/tmp/a.png" {
		t.Errorf("row 0 avatar = %q", rows[0].Avatar)
	}
	if rows[1].Avatar != "" {
		t.Error("patch should stop at the first matching row")
	}

	select {
	case <-ch:
	default:
		t.Error("no row_changed event")
	}
}

func TestFolderMembership(t *testing.T) {
	e, client, _ := testEngine(t)

	fullPage(client, &tg.DialogsPayload{
		Dialogs: []*tg.Dialog{
			dialog(userRef(1), 1, false),
			dialog(tg.PeerRef{Kind: tg.PeerChat, ID: 2}, 2, false),
		},
		Users: []*tg.User{user(1, "A", "")},
		Chats: []*tg.Chat{{ID: 2, Title: "G"}},
	})

	e.FoldersChanged([]folders.Folder{
		{Filter: &tg.DialogFilter{Kind: tg.FilterDefault}},
		{Filter: &tg.DialogFilter{Kind: tg.FilterCustom, Groups: true}},
	})

	if !e.InFolder(0, 0) {
		t.Error("user row should be in the default folder")
	}
	if e.InFolder(0, 1) {
		t.Error("user row should not be in the groups folder")
	}
	if !e.InFolder(1, 1) {
		t.Error("group row should be in the groups folder")
	}

	// Absent list and out-of-range queries are permissive.
	if !e.InFolder(0, 5) || !e.InFolder(99, 0) {
		t.Error("out-of-range membership should be permissive")
	}
}

func TestIdentityChangeResets(t *testing.T) {
	e, client, b := testEngine(t)

	fullPage(client, &tg.DialogsPayload{
		Dialogs: []*tg.Dialog{dialog(userRef(1), 1, false)},
		Users:   []*tg.User{user(1, "A", "")},
	})

	ch, unsub := b.Subscribe("dialogs.reset", 10)
	defer unsub()

	client.SelfID = 2
	client.Emit(tg.AuthorizedEvent{UserID: 2})

	if len(e.Rows()) != 0 {
		t.Error("identity change should clear the rows")
	}
	select {
	case <-ch:
	default:
		t.Error("no dialogs.reset event")
	}
	if len(client.DialogFetches) != 2 {
		t.Errorf("got %d fetches, want 2 (refetch for new identity)", len(client.DialogFetches))
	}
}
