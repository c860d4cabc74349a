package playback

// Status is the transport playback status.
type Status string

const (
	StatusStopped Status = "stopped"
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
)

// Transport is the playback transport state: status plus position and
// duration in seconds.
type Transport struct {
	Status       Status  `json:"playbackStatus"`
	PlaybackTime float64 `json:"currentPlaybackTime"`
	Duration     float64 `json:"playbackDuration"`
}

// NewTransport returns a stopped transport at position zero.
func NewTransport() Transport {
	return Transport{Status: StatusStopped}
}

// Fraction is the played fraction of the current track. A zero duration
// yields 0, never NaN.
func (t Transport) Fraction() float64 {
	if t.Duration <= 0 {
		return 0
	}
	return t.PlaybackTime / t.Duration
}
