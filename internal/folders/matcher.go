// Package folders holds the dialog filter predicate, icon resolution and the
// folder-list engine.
package folders

import "github.com/pocketgram/core/internal/tg"

// Matches reports whether the peer belongs to the filter. Rules run in order
// and the first hit wins: default matches everything, then the include list,
// then the chatlist cutoff, then the exclude list, then the exclusion vetoes,
// then the category flags. A peer matching nothing is out.
func Matches(f *tg.DialogFilter, peer *tg.PeerRecord) bool {
	if f == nil || f.Kind == tg.FilterDefault {
		return true
	}

	ref := tg.PeerRef{}
	if peer != nil {
		ref = peer.Ref
	}

	for _, p := range f.IncludePeers {
		if ref.Equal(p) {
			return true
		}
	}

	if f.Kind == tg.FilterChatlist {
		return false
	}

	for _, p := range f.ExcludePeers {
		if ref.Equal(p) {
			return false
		}
	}

	if f.ExcludeMuted && peer != nil && peer.Silent {
		return false
	}
	if f.ExcludeRead && peer != nil &&
		!peer.UnreadMark && peer.UnreadCount == 0 &&
		peer.UnreadMentions == 0 && peer.UnreadReactions == 0 {
		return false
	}
	if f.ExcludeArchived && peer != nil && peer.FolderID != 0 {
		return false
	}

	if f.Contacts && peer.IsUser() && peer.Contact {
		return true
	}
	if f.NonContacts && peer.IsUser() && !peer.Contact {
		return true
	}
	if f.Groups && peer.IsGroup() {
		return true
	}
	if f.Broadcasts && peer.IsChannel() {
		return true
	}
	if f.Bots && peer.IsUser() && peer.Bot {
		return true
	}

	return false
}
