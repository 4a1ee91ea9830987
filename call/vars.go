package call

// Call status values. Transitions follow the live-call state machine:
// initiated -> answered -> (machine|notsure|answered) -> bridging -> bridged,
// hold is entered from any live state and unhold restores the prior status,
// completed/failed/terminated are terminal.
const (
	StatusInitiated  = "initiated"
	StatusAnswered   = "answered"
	StatusMachine    = "machine"
	StatusNotSure    = "notsure"
	StatusBridging   = "bridging"
	StatusBridged    = "bridged"
	StatusHold       = "hold"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusTerminated = "terminated"
)

// IsTerminalStatus reports whether a status admits no further transitions
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusTerminated:
		return true
	}
	return false
}

// AMD classifications delivered on control-plane re-entry
const (
	AMDStatusMachine = "MACHINE"
	AMDStatusHuman   = "HUMAN"
	AMDStatusNotSure = "NOTSURE"
)

// Action types queued behind AMD completion
const (
	ActionPlayText    = "play-text"
	ActionPlayAudio   = "play-audio"
	ActionGatherText  = "gather-text"
	ActionGatherAudio = "gather-audio"
)

// Action is one pending media command on a call's action queue
type Action struct {
	Type          string
	Text          string
	Voice         string
	AudioURL      string
	MaxDigits     int
	ValidDigits   string
	MaxTries      int
	TimeoutMillis int
}

// Playback item types
const (
	PlaybackItemText  = "text"
	PlaybackItemAudio = "audio"
)

// PlaybackItem is one pending entry on a call's playback queue
type PlaybackItem struct {
	Type  string
	Text  string
	Voice string
	URL   string
}

// Q.850 hangup cause texts for the causes Asterisk commonly reports
var hangupCauseText = map[int]string{
	1:  "Unallocated number",
	16: "Normal call clearing",
	17: "User busy",
	18: "No user response",
	19: "No answer from user",
	21: "Call rejected",
	27: "Destination out of order",
	28: "Invalid number format",
	34: "No circuit/channel available",
	38: "Network out of order",
	41: "Temporary failure",
	42: "Switching equipment congestion",
	44: "Requested channel not available",
	58: "Bearer capability not available",
}

// CauseText maps a Q.850 cause code to its display text
func CauseText(code int) string {
	if text, ok := hangupCauseText[code]; ok {
		return text
	}
	return "Unknown"
}
