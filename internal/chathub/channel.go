package chathub

import "strconv"

// ChannelFor derives the canonical conversation channel name for a pair of
// principals: the two ids sorted ascending, joined with "-". The derivation
// is symmetric (ChannelFor(a, b) == ChannelFor(b, a)) and total; a self-pair
// collapses to a degenerate single-participant channel, which callers treat
// as a normal case.
func ChannelFor(a, b uint) string {
	if b < a {
		a, b = b, a
	}
	return strconv.FormatUint(uint64(a), 10) + "-" + strconv.FormatUint(uint64(b), 10)
}
