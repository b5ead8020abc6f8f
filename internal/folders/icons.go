package folders

import "github.com/pocketgram/core/internal/tg"

// Emoticon to icon name, matching the set shipped by the desktop client.
var iconByEmoticon = map[string]string{
	"\U0001F431":   "cat",
	"\U0001F4D5":   "book",
	"\U0001F4B0":   "money",
	"\U0001F3AE":   "game",
	"\U0001F4A1":   "light",
	"\U0001F44C":   "like",
	"\U0001F3B5":   "note",
	"\U0001F3A8":   "palette",
	"\u2708\uFE0F": "travel",
	"\u26BD\uFE0F": "sport",
	"\u2B50":       "favorite",
	"\U0001F393":   "study",
	"\U0001F6EB":   "airplane",
	"\U0001F464":   "private",
	"\U0001F465":   "groups",
	"\U0001F4AC":   "all",
	"\u2705":       "unread",
	"\U0001F916":   "bots",
	"\U0001F451":   "crown",
	"\U0001F339":   "flower",
	"\U0001F3E0":   "home",
	"\u2764":       "love",
	"\U0001F3AD":   "mask",
	"\U0001F378":   "party",
	"\U0001F4C8":   "trade",
	"\U0001F4BC":   "work",
	"\U0001F514":   "unmuted",
	"\U0001F4E2":   "channels",
	"\U0001F4C1":   "custom",
	"\U0001F4CB":   "setup",
}

// categoryMask covers the five low peer-category bits.
const categoryMask uint32 = 31

// IconFor resolves the display icon name for a filter. The emoticon table
// wins; otherwise the flag word picks a category icon, falling back to
// "custom" for anything with explicit peer lists or mixed categories.
func IconFor(f *tg.DialogFilter) string {
	if f == nil || f.Kind == tg.FilterDefault {
		return "all"
	}

	if icon, ok := iconByEmoticon[f.Emoticon]; ok {
		return icon
	}

	cat := f.Flags & categoryMask

	switch {
	case len(f.IncludePeers) > 0 || len(f.ExcludePeers) > 0 || cat == 0:
		return "custom"
	case cat == tg.FilterFlagContacts || cat == tg.FilterFlagNonContacts ||
		cat == tg.FilterFlagContacts|tg.FilterFlagNonContacts:
		return "private"
	case cat == tg.FilterFlagGroups:
		return "groups"
	case cat == tg.FilterFlagBroadcasts:
		return "channels"
	case cat == tg.FilterFlagBots:
		return "bots"
	case f.Flags&tg.FilterFlagExcludeRead != 0:
		return "unread"
	case f.Flags&tg.FilterFlagUnmuted != 0:
		return "unmuted"
	default:
		return "custom"
	}
}
