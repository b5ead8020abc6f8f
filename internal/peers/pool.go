// Package peers resolves peer references against the most recently seen
// user/chat batches. Lookup is a deliberate linear scan over a bounded
// append-only pool; no index is kept.
package peers

import (
	"sync"

	"github.com/pocketgram/core/internal/tg"
)

const defaultLimit = 4096

// Pool holds recently seen user and chat records, shared by the engines.
type Pool struct {
	mu    sync.RWMutex
	users []*tg.User
	chats []*tg.Chat
	limit int
}

// NewPool creates a pool retaining up to the default number of records per kind.
func NewPool() *Pool {
	return &Pool{limit: defaultLimit}
}

// Absorb appends the batches delivered alongside a response or update.
// Older entries fall off once the per-kind limit is exceeded.
func (p *Pool) Absorb(users []*tg.User, chats []*tg.Chat) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.users = append(p.users, users...)
	if n := len(p.users) - p.limit; n > 0 {
		p.users = append([]*tg.User(nil), p.users[n:]...)
	}
	p.chats = append(p.chats, chats...)
	if n := len(p.chats) - p.limit; n > 0 {
		p.chats = append([]*tg.Chat(nil), p.chats[n:]...)
	}
}

// Resolve looks the reference up in the pool, newest entries last as absorbed.
func (p *Pool) Resolve(ref tg.PeerRef) *tg.PeerRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch ref.Kind {
	case tg.PeerUser:
		for _, u := range p.users {
			if u.ID == ref.ID {
				return tg.RecordFromUser(u)
			}
		}
	case tg.PeerChat, tg.PeerChannel:
		for _, c := range p.chats {
			if c.Ref().Equal(ref) {
				return tg.RecordFromChat(c)
			}
		}
	}
	return nil
}

// ResolveID looks a bare numeric id up, users first, then chats. Short
// updates carry ids without a kind.
func (p *Pool) ResolveID(id int64) *tg.PeerRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, u := range p.users {
		if u.ID == id {
			return tg.RecordFromUser(u)
		}
	}
	for _, c := range p.chats {
		if c.ID == id {
			return tg.RecordFromChat(c)
		}
	}
	return nil
}

// Reset drops all pooled records.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = nil
	p.chats = nil
}

// FindUser scans a response batch for the referenced user.
func FindUser(users []*tg.User, ref tg.PeerRef) *tg.User {
	if ref.Kind != tg.PeerUser {
		return nil
	}
	for _, u := range users {
		if u.ID == ref.ID {
			return u
		}
	}
	return nil
}

// FindChat scans a response batch for the referenced chat or channel.
func FindChat(chats []*tg.Chat, ref tg.PeerRef) *tg.Chat {
	if ref.Kind != tg.PeerChat && ref.Kind != tg.PeerChannel {
		return nil
	}
	for _, c := range chats {
		if c.Ref().Equal(ref) {
			return c
		}
	}
	return nil
}

// ResolveBatches resolves a reference against response batches, falling back
// to nil when the peer was not delivered this round.
func ResolveBatches(ref tg.PeerRef, users []*tg.User, chats []*tg.Chat) *tg.PeerRecord {
	if u := FindUser(users, ref); u != nil {
		return tg.RecordFromUser(u)
	}
	if c := FindChat(chats, ref); c != nil {
		return tg.RecordFromChat(c)
	}
	return nil
}
