package domain

import "strconv"

// Song is the descriptor the playback engine hands to the analytics core
// when a track starts. Title and artist are denormalized into every record
// created from it so reports survive later edits or deletions.
type Song struct {
	// ID is the local library reference. Online-catalog songs carry a
	// negative local ID and set IsOnline/OnlineID.
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	DurationMs int64  `json:"duration_ms"`
	IsOnline   bool   `json:"is_online"`
	OnlineID   *int64 `json:"online_id,omitempty"`
}

// IdentityKey returns the stable identity of a song across sessions:
// online songs are keyed by their catalog ID, local songs by their local ID.
// An online song and a local song that happen to share a numeric ID stay
// distinct.
func (s Song) IdentityKey() string {
	if s.IsOnline && s.OnlineID != nil {
		return "online:" + strconv.FormatInt(*s.OnlineID, 10)
	}
	return "local:" + strconv.FormatInt(s.ID, 10)
}
