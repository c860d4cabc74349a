package playback

// Snapshot is the full serializable playback state exchanged on
// (re)synchronization: the transport plus the queue contents and cursor.
type Snapshot struct {
	Transport       Transport `json:"transport"`
	Tracks          []Track   `json:"queue"`
	NowPlayingIndex int       `json:"nowPlayingIndex"`
}

// TakeSnapshot captures the given transport and queue.
func TakeSnapshot(t Transport, q *Queue) Snapshot {
	return Snapshot{
		Transport:       t,
		Tracks:          q.Tracks(),
		NowPlayingIndex: q.NowPlayingIndex(),
	}
}

// Restore overwrites the queue wholesale from the snapshot and returns
// the snapshot's transport. There is no merging; an inbound snapshot is
// authoritative.
func (s Snapshot) Restore(q *Queue) Transport {
	q.tracks = make([]Track, len(s.Tracks))
	copy(q.tracks, s.Tracks)
	q.nowPlayingIndex = s.NowPlayingIndex
	q.clampCursor()
	return s.Transport
}
