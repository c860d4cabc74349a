package playback

import "github.com/google/uuid"

// Attributes carries the catalog metadata for a track. The core never
// interprets these fields; they ride along for the UI.
type Attributes struct {
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	ArtworkURL string `json:"artworkURL,omitempty"`
}

// Track is an immutable queue entry. StoreID identifies the catalog item
// and is the identity used by queue operations. LocalID is unique per
// process so the same catalog item can appear twice in one queue and
// still diff cleanly in a UI list.
type Track struct {
	StoreID    string     `json:"storeID"`
	LocalID    string     `json:"localID"`
	Attributes Attributes `json:"attributes"`
}

// NewTrack builds a track with a fresh LocalID.
func NewTrack(storeID string, attrs Attributes) Track {
	return Track{
		StoreID:    storeID,
		LocalID:    uuid.NewString(),
		Attributes: attrs,
	}
}

// SameItem reports whether both tracks reference the same catalog item.
func (t Track) SameItem(other Track) bool {
	return t.StoreID == other.StoreID
}
