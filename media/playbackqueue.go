package media

import (
	"context"
	"sync"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/callback"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/asterisk"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/azure"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	guuid "github.com/google/uuid"
)

const (
	playbackMaxRetries = 2
	playbackRetryDelay = 500 * time.Millisecond
)

// queueEntry is one playback item in flight or waiting, with the channel the
// enqueuer blocks on
type queueEntry struct {
	item call.PlaybackItem
	done chan error
}

// playbackState tracks the current entry and its retry budget for one call
type playbackState struct {
	queue   []*queueEntry
	current *queueEntry
	retries int
}

var (
	playbackStates   = make(map[string]*playbackState)
	playbackStatesMu sync.Mutex
)

func statePrefix(item call.PlaybackItem) string {
	if item.Type == call.PlaybackItemText {
		return "speak"
	}
	return "playback"
}

// Enqueue appends an item to the call's playback queue and starts draining
// if nothing is playing. The returned channel fires once the item has
// finished or permanently failed.
func Enqueue(ctx context.Context, callID string, item call.PlaybackItem) (<-chan error, error) {
	if !call.Exists(callID) {
		return nil, call.ErrCallNotFound
	}
	entry := &queueEntry{item: item, done: make(chan error, 1)}

	playbackStatesMu.Lock()
	state, ok := playbackStates[callID]
	if !ok {
		state = &playbackState{}
		playbackStates[callID] = state
	}
	state.queue = append(state.queue, entry)
	shouldStart := state.current == nil
	playbackStatesMu.Unlock()

	call.Mutate(callID, func(record *call.Record) {
		record.PlaybackQueue = append(record.PlaybackQueue, item)
		record.IsProcessingQueue = true
	})

	if shouldStart {
		go startNextPlayback(ctx, callID)
	}
	return entry.done, nil
}

// EnqueueAndWait enqueues and blocks until the item completes
func EnqueueAndWait(ctx context.Context, callID string, item call.PlaybackItem) error {
	done, err := Enqueue(ctx, callID, item)
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func startNextPlayback(ctx context.Context, callID string) {
	playbackStatesMu.Lock()
	state, ok := playbackStates[callID]
	if !ok || len(state.queue) == 0 {
		if ok {
			state.current = nil
		}
		playbackStatesMu.Unlock()
		call.Mutate(callID, func(record *call.Record) {
			record.IsProcessingQueue = false
			record.PlaybackID = ""
		})
		return
	}
	entry := state.queue[0]
	state.queue = state.queue[1:]
	state.current = entry
	state.retries = 0
	playbackStatesMu.Unlock()

	call.Mutate(callID, func(record *call.Record) {
		if len(record.PlaybackQueue) > 0 {
			record.PlaybackQueue = record.PlaybackQueue[1:]
		}
	})

	playEntry(ctx, callID, entry)
}

// playEntry resolves the entry to a playable media reference and starts it
func playEntry(ctx context.Context, callID string, entry *queueEntry) {
	record, err := call.Get(callID)
	if err != nil {
		finishEntry(ctx, callID, entry, call.ErrCallNotFound, false)
		return
	}
	prefix := statePrefix(entry.item)

	mediaFile := entry.item.URL
	if entry.item.Type == call.PlaybackItemText {
		mediaFile, err = resolveSpeechFile(ctx, callID, entry.item.Text, entry.item.Voice)
		if err != nil {
			callback.Send(callID, record.CallbackURL, prefix+".error", map[string]interface{}{
				"error": err.Error(),
			})
			finishEntry(ctx, callID, entry, err, false)
			return
		}
	}

	playbackID := guuid.New().String()
	call.Mutate(callID, func(r *call.Record) {
		r.PlaybackID = playbackID
	})

	if entry.item.Type == call.PlaybackItemText {
		err = asterisk.PlaySound(ctx, callID, record.ChannelID, playbackID, mediaFile)
	} else {
		err = asterisk.PlayMedia(ctx, callID, record.ChannelID, playbackID, mediaFile)
	}
	if err != nil {
		retryEntry(ctx, callID, entry)
		return
	}
	callback.Send(callID, record.CallbackURL, prefix+".started", map[string]interface{}{})
}

// resolveSpeechFile checks the call's TTS cache before synthesizing
func resolveSpeechFile(ctx context.Context, callID string, text string, voice string) (string, error) {
	cacheKey := text + ":" + voice
	record, err := call.Get(callID)
	if err != nil {
		return "", err
	}
	if cached, ok := record.TTSCache[cacheKey]; ok {
		ymlogger.LogDebugf(callID, "TTS cache hit for key of length [%d]", len(cacheKey))
		return cached, nil
	}
	speechFile, err := azure.GetSpeechFile(ctx, callID, text, voice)
	if err != nil {
		return "", err
	}
	call.Mutate(callID, func(r *call.Record) {
		r.TTSCache[cacheKey] = speechFile
		r.TTSFiles = append(r.TTSFiles, speechFile)
	})
	return speechFile, nil
}

func retryEntry(ctx context.Context, callID string, entry *queueEntry) {
	playbackStatesMu.Lock()
	state, ok := playbackStates[callID]
	if !ok || state.current != entry {
		playbackStatesMu.Unlock()
		return
	}
	state.retries++
	retries := state.retries
	playbackStatesMu.Unlock()

	if retries <= playbackMaxRetries {
		ymlogger.LogInfof(callID, "Playback failed. Retry [%d] after delay", retries)
		time.Sleep(playbackRetryDelay)
		playEntry(ctx, callID, entry)
		return
	}
	record, recErr := call.Get(callID)
	if recErr == nil {
		callback.Send(callID, record.CallbackURL, statePrefix(entry.item)+".error", map[string]interface{}{
			"error": "Playback failed",
		})
	}
	finishEntry(ctx, callID, entry, ErrPlaybackFailed, true)
}

// finishEntry resolves the current entry and advances the queue
func finishEntry(ctx context.Context, callID string, entry *queueEntry, result error, advance bool) {
	playbackStatesMu.Lock()
	state, ok := playbackStates[callID]
	if ok && state.current == entry {
		state.current = nil
	}
	playbackStatesMu.Unlock()

	select {
	case entry.done <- result:
	default:
	}
	if advance {
		startNextPlayback(ctx, callID)
	}
}

// OnPlaybackFinished advances the queue when the current item's playback ends
func OnPlaybackFinished(ctx context.Context, callID string, playbackID string) {
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	if record.HoldPlaybackID == playbackID {
		restartHoldLoop(ctx, callID)
		return
	}
	notifyPlaybackWatcher(callID, playbackID)
	if record.PlaybackID != playbackID {
		return
	}
	call.Mutate(callID, func(r *call.Record) {
		r.PlaybackID = ""
	})

	playbackStatesMu.Lock()
	state, ok := playbackStates[callID]
	var entry *queueEntry
	if ok {
		entry = state.current
	}
	playbackStatesMu.Unlock()
	if entry == nil {
		return
	}
	callback.Send(callID, record.CallbackURL, statePrefix(entry.item)+".ended", map[string]interface{}{})
	finishEntry(ctx, callID, entry, nil, true)
}

// OnPlaybackFailed retries the current item before giving up on it
func OnPlaybackFailed(ctx context.Context, callID string, playbackID string) {
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	if record.HoldPlaybackID == playbackID {
		restartHoldLoop(ctx, callID)
		return
	}
	notifyPlaybackWatcher(callID, playbackID)
	if record.PlaybackID != playbackID {
		return
	}
	playbackStatesMu.Lock()
	state, ok := playbackStates[callID]
	var entry *queueEntry
	if ok {
		entry = state.current
	}
	playbackStatesMu.Unlock()
	if entry == nil {
		return
	}
	retryEntry(ctx, callID, entry)
}

// StopCurrentPlayback stops whatever is playing on the call right now
func StopCurrentPlayback(ctx context.Context, callID string) {
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	if len(record.PlaybackID) > 0 {
		asterisk.StopPlayback(ctx, callID, record.PlaybackID)
	}
}

// ClearPlaybackQueue drops every pending item, failing their waiters
func ClearPlaybackQueue(ctx context.Context, callID string) {
	playbackStatesMu.Lock()
	state, ok := playbackStates[callID]
	var dropped []*queueEntry
	if ok {
		dropped = state.queue
		state.queue = nil
	}
	playbackStatesMu.Unlock()

	call.Mutate(callID, func(record *call.Record) {
		record.PlaybackQueue = nil
	})
	for _, entry := range dropped {
		select {
		case entry.done <- ErrPlaybackCancelled:
		default:
		}
	}
}

// ReleasePlaybackState frees the per-call playback bookkeeping at call end
func ReleasePlaybackState(ctx context.Context, callID string) {
	ClearPlaybackQueue(ctx, callID)
	playbackStatesMu.Lock()
	state, ok := playbackStates[callID]
	var entry *queueEntry
	if ok {
		entry = state.current
		delete(playbackStates, callID)
	}
	playbackStatesMu.Unlock()
	if entry != nil {
		select {
		case entry.done <- ErrPlaybackCancelled:
		default:
		}
	}
}
