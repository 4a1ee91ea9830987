package media

import "errors"

// ErrPlaybackFailed is returned once an item's retry budget is exhausted
var ErrPlaybackFailed = errors.New("Playback failed")

// ErrPlaybackCancelled is returned to waiters when a queue is cleared
var ErrPlaybackCancelled = errors.New("Playback cancelled")

// ErrChannelGone aborts the action queue when the channel stops responding
var ErrChannelGone = errors.New("Channel not found")
