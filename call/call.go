package call

import (
	"errors"
	"sync"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/globals"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
)

// ErrCallNotFound is returned when no record exists for a call id
var ErrCallNotFound = errors.New("Call state not found")

// Record contains the live state for one call
type Record struct {
	CallID          string
	ChannelID       string
	PreAmdChannelID string
	Status          string
	PreviousStatus  string

	CallbackURL string
	APIKey      string
	UserID      int64
	CountryCode string
	ToNumber    string
	FromNumber  string

	PricePerSecond   float64
	BillingIncrement string

	CallAnswered     bool
	ActualAnswerTime time.Time
	StartTime        time.Time
	EndTime          time.Time

	IsOnHold          bool
	HoldStartTime     time.Time
	TotalHoldDuration int64
	HoldPlaybackID    string

	AMD              bool
	AMDCompleted     bool
	PostAMDDelayDone bool

	ActionQueue         []Action
	IsProcessingActions bool

	PlaybackQueue     []PlaybackItem
	PlaybackID        string
	IsProcessingQueue bool

	DtmfDigits   string
	DTMFListener chan string

	SnoopChannelID    string
	RecordingName     string
	RecordingFilePath string

	TTSCache map[string]string
	TTSFiles []string

	TransferChannelID string
	BridgeID          string
	TransferTimer     *time.Timer
	BridgedEnded      bool
	LegADigits        string
	LegBDigits        string

	AssistantActive bool
}

var (
	// callData maps callID to its live record
	callData     = make(map[string]*Record)
	callMapMutex = sync.RWMutex{}
)

// Create registers a fresh record for a call. The record starts initiated
// with an empty TTS cache.
func Create(callID string, record *Record) *Record {
	callMapMutex.Lock()
	record.CallID = callID
	if record.Status == "" {
		record.Status = StatusInitiated
	}
	if record.StartTime.IsZero() {
		record.StartTime = time.Now()
	}
	if record.TTSCache == nil {
		record.TTSCache = make(map[string]string)
	}
	callData[callID] = record
	callMapMutex.Unlock()
	globals.IncrementNoOfCalls()
	globals.IncrementNoOfCallObject()
	ymlogger.LogInfof(callID, "Number of calls [%d]. Number of call objects [%d]", globals.GetNoOfCalls(), globals.GetNoOfCallObject())
	return record
}

// Get returns a snapshot copy of the record for a call id
func Get(callID string) (Record, error) {
	callMapMutex.RLock()
	record, ok := callData[callID]
	if !ok {
		callMapMutex.RUnlock()
		return Record{}, ErrCallNotFound
	}
	snapshot := *record
	callMapMutex.RUnlock()
	return snapshot, nil
}

// Exists reports whether a record is registered for a call id
func Exists(callID string) bool {
	callMapMutex.RLock()
	_, ok := callData[callID]
	callMapMutex.RUnlock()
	return ok
}

// Mutate applies fn to the live record under the registry lock
func Mutate(callID string, fn func(record *Record)) error {
	callMapMutex.Lock()
	record, ok := callData[callID]
	if !ok {
		callMapMutex.Unlock()
		return ErrCallNotFound
	}
	fn(record)
	callMapMutex.Unlock()
	return nil
}

// Delete removes a record. Safe to call twice, only the first call counts.
func Delete(callID string) {
	callMapMutex.Lock()
	_, ok := callData[callID]
	if ok {
		delete(callData, callID)
	}
	callMapMutex.Unlock()
	if ok {
		globals.DecrementNoOfCalls()
		globals.DecrementNoOfCallObject()
	}
}

// FindCallIDByChannel scans for the call owning a channel. Covers the live
// channel, the pre-AMD channel, snoop and transfer legs.
func FindCallIDByChannel(channelID string) (string, error) {
	callMapMutex.RLock()
	defer callMapMutex.RUnlock()
	for callID, record := range callData {
		if record.ChannelID == channelID ||
			record.PreAmdChannelID == channelID ||
			record.SnoopChannelID == channelID ||
			record.TransferChannelID == channelID {
			return callID, nil
		}
	}
	return "", ErrCallNotFound
}

// ActiveCallsForUser counts a user's records in non-terminal states
func ActiveCallsForUser(userID int64) int {
	callMapMutex.RLock()
	defer callMapMutex.RUnlock()
	count := 0
	for _, record := range callData {
		if record.UserID == userID && !IsTerminalStatus(record.Status) {
			count++
		}
	}
	return count
}

// OldestActiveCallForUser returns the user's non-terminal call with the
// earliest start time. Used for oldest-active eviction at admission.
func OldestActiveCallForUser(userID int64) (string, bool) {
	callMapMutex.RLock()
	defer callMapMutex.RUnlock()
	oldestID := ""
	var oldestStart time.Time
	for callID, record := range callData {
		if record.UserID != userID || IsTerminalStatus(record.Status) {
			continue
		}
		if oldestID == "" || record.StartTime.Before(oldestStart) {
			oldestID = callID
			oldestStart = record.StartTime
		}
	}
	return oldestID, oldestID != ""
}

// AllCallIDs returns every registered call id
func AllCallIDs() []string {
	callMapMutex.RLock()
	defer callMapMutex.RUnlock()
	ids := make([]string, 0, len(callData))
	for callID := range callData {
		ids = append(ids, callID)
	}
	return ids
}
