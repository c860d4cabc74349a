package playback

import "errors"

var ErrIndexOutOfRange = errors.New("queue index out of range")

// TrackStatus is a track's position relative to the now-playing cursor.
type TrackStatus string

const (
	TrackPlayed     TrackStatus = "played"
	TrackPlaying    TrackStatus = "playing"
	TrackInQueue    TrackStatus = "inQueue"
	TrackNotInQueue TrackStatus = "notInQueue"
)

// Queue is the ordered playback queue with a now-playing cursor.
//
// Invariant: whenever the queue is non-empty, nowPlayingIndex is in
// [0, len-1]. The cursor is only meaningful while the queue is non-empty,
// and a queue that just became non-empty starts at cursor 0.
//
// A Queue is not safe for concurrent use; the synchronization controller
// that owns it confines all mutation to one goroutine.
type Queue struct {
	tracks          []Track
	nowPlayingIndex int
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Len() int { return len(q.tracks) }

func (q *Queue) IsEmpty() bool { return len(q.tracks) == 0 }

func (q *Queue) NowPlayingIndex() int { return q.nowPlayingIndex }

// Tracks returns a copy of the queue contents in order.
func (q *Queue) Tracks() []Track {
	out := make([]Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// NowPlaying returns the track under the cursor. ok is false when the
// queue is empty.
func (q *Queue) NowPlaying() (Track, bool) {
	if len(q.tracks) == 0 {
		return Track{}, false
	}
	return q.tracks[q.nowPlayingIndex], true
}

// Upcoming returns a copy of the tracks after the cursor.
func (q *Queue) Upcoming() []Track {
	if len(q.tracks) == 0 || q.nowPlayingIndex >= len(q.tracks)-1 {
		return nil
	}
	out := make([]Track, len(q.tracks)-q.nowPlayingIndex-1)
	copy(out, q.tracks[q.nowPlayingIndex+1:])
	return out
}

// Append adds tracks to the end of the queue, preserving their relative
// order.
func (q *Queue) Append(tracks []Track) {
	q.tracks = append(q.tracks, tracks...)
	q.clampCursor()
}

// Prepend inserts tracks immediately after the now-playing cursor,
// preserving their relative order. On an empty queue this is the same as
// Append.
func (q *Queue) Prepend(tracks []Track) {
	if len(tracks) == 0 {
		return
	}
	if len(q.tracks) == 0 {
		q.tracks = append(q.tracks, tracks...)
		q.nowPlayingIndex = 0
		return
	}
	at := q.nowPlayingIndex + 1
	rest := make([]Track, len(q.tracks[at:]))
	copy(rest, q.tracks[at:])
	q.tracks = append(q.tracks[:at], tracks...)
	q.tracks = append(q.tracks, rest...)
}

// RemoveAt removes the track at index i. The cursor tracks its element:
// removing before it shifts it down, removing under it leaves it pointing
// at the successor (clamped at the end).
func (q *Queue) RemoveAt(i int) error {
	if i < 0 || i >= len(q.tracks) {
		return ErrIndexOutOfRange
	}
	q.tracks = append(q.tracks[:i], q.tracks[i+1:]...)
	if i < q.nowPlayingIndex {
		q.nowPlayingIndex--
	}
	q.clampCursor()
	return nil
}

// MoveToStartOfQueue moves the track at index i to immediately after the
// now-playing cursor. Moving the now-playing track itself is a no-op.
func (q *Queue) MoveToStartOfQueue(i int) error {
	if i < 0 || i >= len(q.tracks) {
		return ErrIndexOutOfRange
	}
	if i == q.nowPlayingIndex {
		return nil
	}
	t := q.tracks[i]
	q.tracks = append(q.tracks[:i], q.tracks[i+1:]...)
	if i < q.nowPlayingIndex {
		q.nowPlayingIndex--
	}
	at := q.nowPlayingIndex + 1
	if at > len(q.tracks) {
		at = len(q.tracks)
	}
	rest := make([]Track, len(q.tracks[at:]))
	copy(rest, q.tracks[at:])
	q.tracks = append(q.tracks[:at], t)
	q.tracks = append(q.tracks, rest...)
	return nil
}

// SkipToNext advances the cursor by one. At the last index it is a no-op
// and reports false; the cursor never wraps.
func (q *Queue) SkipToNext() bool {
	if q.nowPlayingIndex >= len(q.tracks)-1 {
		return false
	}
	q.nowPlayingIndex++
	return true
}

// SkipToPrevious moves the cursor back by one. At index 0 it is a no-op
// and reports false.
func (q *Queue) SkipToPrevious() bool {
	if q.nowPlayingIndex <= 0 {
		return false
	}
	q.nowPlayingIndex--
	return true
}

// SetNowPlayingIndex moves the cursor to i.
func (q *Queue) SetNowPlayingIndex(i int) error {
	if i < 0 || i >= len(q.tracks) {
		return ErrIndexOutOfRange
	}
	q.nowPlayingIndex = i
	return nil
}

// StatusFor reports where track sits relative to the cursor. Identity is
// by StoreID and only the first match counts; a track that appears twice
// is judged by its earliest position.
func (q *Queue) StatusFor(track Track) TrackStatus {
	if len(q.tracks) == 0 {
		return TrackNotInQueue
	}
	for i, t := range q.tracks {
		if !t.SameItem(track) {
			continue
		}
		switch {
		case i < q.nowPlayingIndex:
			return TrackPlayed
		case i == q.nowPlayingIndex:
			return TrackPlaying
		default:
			return TrackInQueue
		}
	}
	return TrackNotInQueue
}

// SetQueueTo projects the queue onto an externally authoritative order of
// store ids, matching each id against the existing queue first and then
// newTracks. Ids with no match are dropped from the result and returned
// so the caller can report them; the operation itself always succeeds.
func (q *Queue) SetQueueTo(orderedStoreIDs []string, newTracks []Track) (unmatched []string) {
	pool := make([]Track, 0, len(q.tracks)+len(newTracks))
	pool = append(pool, q.tracks...)
	pool = append(pool, newTracks...)

	result := make([]Track, 0, len(orderedStoreIDs))
	for _, id := range orderedStoreIDs {
		found := false
		for _, t := range pool {
			if t.StoreID == id {
				result = append(result, t)
				found = true
				break
			}
		}
		if !found {
			unmatched = append(unmatched, id)
		}
	}
	q.tracks = result
	q.clampCursor()
	return unmatched
}

func (q *Queue) clampCursor() {
	if q.nowPlayingIndex < 0 {
		q.nowPlayingIndex = 0
	}
	if last := len(q.tracks) - 1; q.nowPlayingIndex > last && last >= 0 {
		q.nowPlayingIndex = last
	}
	if len(q.tracks) == 0 {
		q.nowPlayingIndex = 0
	}
}
