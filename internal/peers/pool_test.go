package peers

import (
	"testing"

	"github.com/pocketgram/core/internal/tg"
)

func TestResolveKinds(t *testing.T) {
	p := NewPool()
	p.Absorb(
		[]*tg.User{{ID: 10, FirstName: "Ada"}},
		[]*tg.Chat{
			{ID: 20, Title: "Group"},
			{ID: 30, Title: "Channel", Broadcast: true},
		},
	)

	if r := p.Resolve(tg.PeerRef{Kind: tg.PeerUser, ID: 10}); r == nil || r.FirstName != "Ada" {
		t.Errorf("user resolve = %#v", r)
	}
	if r := p.Resolve(tg.PeerRef{Kind: tg.PeerChat, ID: 20}); r == nil || r.Title != "Group" {
		t.Errorf("chat resolve = %#v", r)
	}
	if r := p.Resolve(tg.PeerRef{Kind: tg.PeerChannel, ID: 30}); r == nil || !r.Broadcast {
		t.Errorf("channel resolve = %#v", r)
	}
	if r := p.Resolve(tg.PeerRef{Kind: tg.PeerUser, ID: 99}); r != nil {
		t.Errorf("unknown peer resolved: %#v", r)
	}
}

func TestResolveIDPrefersUsers(t *testing.T) {
	p := NewPool()
	p.Absorb(
		[]*tg.User{{ID: 7, FirstName: "Sam"}},
		[]*tg.Chat{{ID: 7, Title: "Shadow"}},
	)

	r := p.ResolveID(7)
	if r == nil || !r.IsUser() {
		t.Fatalf("ResolveID(7) = %#v, want user record", r)
	}
}

func TestPoolBounded(t *testing.T) {
	p := &Pool{limit: 3}
	for i := int64(1); i <= 5; i++ {
		p.Absorb([]*tg.User{{ID: i}}, nil)
	}

	if r := p.Resolve(tg.PeerRef{Kind: tg.PeerUser, ID: 1}); r != nil {
		t.Error("oldest entry should have been evicted")
	}
	if r := p.Resolve(tg.PeerRef{Kind: tg.PeerUser, ID: 5}); r == nil {
		t.Error("newest entry missing")
	}
}

func TestResolveBatches(t *testing.T) {
	users := []*tg.User{{ID: 1, FirstName: "Eve"}}
	chats := []*tg.Chat{{ID: 2, Title: "Team"}}

	if r := ResolveBatches(tg.PeerRef{Kind: tg.PeerUser, ID: 1}, users, chats); r == nil || r.FirstName != "Eve" {
		t.Errorf("user = %#v", r)
	}
	if r := ResolveBatches(tg.PeerRef{Kind: tg.PeerChat, ID: 2}, users, chats); r == nil || r.Title != "Team" {
		t.Errorf("chat = %#v", r)
	}
	if r := ResolveBatches(tg.PeerRef{}, users, chats); r != nil {
		t.Errorf("zero ref resolved: %#v", r)
	}
}
