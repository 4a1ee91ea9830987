package media

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/asterisk"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	guuid "github.com/google/uuid"
)

// ErrNotOnHold is returned when unhold is requested for a call not on hold
var ErrNotOnHold = errors.New("Call is not on hold")

// ErrAlreadyOnHold is returned when hold is requested twice
var ErrAlreadyOnHold = errors.New("Call is already on hold")

// Hold stops and clears all playback and loops the hold track until unhold.
// The time spent on hold accumulates separately and is excluded from billing.
func Hold(ctx context.Context, callID string) error {
	record, err := call.Get(callID)
	if err != nil {
		return err
	}
	if record.IsOnHold {
		return ErrAlreadyOnHold
	}
	StopCurrentPlayback(ctx, callID)
	ClearPlaybackQueue(ctx, callID)

	playbackID := guuid.New().String()
	err = call.Mutate(callID, func(r *call.Record) {
		r.IsOnHold = true
		r.HoldStartTime = time.Now()
		r.PreviousStatus = r.Status
		r.Status = call.StatusHold
		r.HoldPlaybackID = playbackID
	})
	if err != nil {
		return err
	}
	if err := asterisk.PlaySound(ctx, callID, record.ChannelID, playbackID, configmanager.ConfStore.HoldAudioFile); err != nil {
		ymlogger.LogErrorf(callID, "Failed to start the hold audio. Error: [%#v]", err)
		return err
	}
	return nil
}

// restartHoldLoop replays the hold track when one pass finishes
func restartHoldLoop(ctx context.Context, callID string) {
	record, err := call.Get(callID)
	if err != nil || !record.IsOnHold {
		return
	}
	playbackID := guuid.New().String()
	call.Mutate(callID, func(r *call.Record) {
		r.HoldPlaybackID = playbackID
	})
	if err := asterisk.PlaySound(ctx, callID, record.ChannelID, playbackID, configmanager.ConfStore.HoldAudioFile); err != nil {
		ymlogger.LogErrorf(callID, "Failed to restart the hold audio. Error: [%#v]", err)
	}
}

// Unhold stops the hold loop, adds the elapsed hold interval to the call's
// total and restores the status the call held before
func Unhold(ctx context.Context, callID string) error {
	record, err := call.Get(callID)
	if err != nil {
		return err
	}
	if !record.IsOnHold {
		return ErrNotOnHold
	}
	holdPlaybackID := ""
	err = call.Mutate(callID, func(r *call.Record) {
		r.IsOnHold = false
		r.TotalHoldDuration += time.Since(r.HoldStartTime).Milliseconds()
		r.Status = r.PreviousStatus
		holdPlaybackID = r.HoldPlaybackID
		r.HoldPlaybackID = ""
	})
	if err != nil {
		return err
	}
	if len(holdPlaybackID) > 0 {
		asterisk.StopPlayback(ctx, callID, holdPlaybackID)
	}
	return nil
}
