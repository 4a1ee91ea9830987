package media

import "sync"

// Playback watchers let the gatherer and the assistant observe the end of a
// playback they started outside the playback queue.
var (
	playbackWatchers   = make(map[string]chan struct{})
	playbackWatchersMu sync.Mutex
)

// RegisterPlaybackWatcher returns a channel that fires once when the given
// playback finishes or fails
func RegisterPlaybackWatcher(playbackID string) <-chan struct{} {
	ch := make(chan struct{}, 1)
	playbackWatchersMu.Lock()
	playbackWatchers[playbackID] = ch
	playbackWatchersMu.Unlock()
	return ch
}

// UnregisterPlaybackWatcher drops a watcher that is no longer needed
func UnregisterPlaybackWatcher(playbackID string) {
	playbackWatchersMu.Lock()
	delete(playbackWatchers, playbackID)
	playbackWatchersMu.Unlock()
}

func notifyPlaybackWatcher(callID string, playbackID string) {
	playbackWatchersMu.Lock()
	ch, ok := playbackWatchers[playbackID]
	if ok {
		delete(playbackWatchers, playbackID)
	}
	playbackWatchersMu.Unlock()
	if ok {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
