package media

import (
	"context"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/callback"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/asterisk"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
)

// postAMDSettleDelay runs once before the first action after AMD completes
const postAMDSettleDelay = 200 * time.Millisecond

// Drain-loop seams, swapped out in tests the way gatherEnv is
var (
	probeChannel = asterisk.ChannelExists
	runAction    = executeAction
)

// EnqueueAction appends a media action to the call's queue. When AMD is
// requested but not yet classified the action stays queued and the caller is
// told so; draining starts once the classification arrives.
func EnqueueAction(ctx context.Context, callID string, action call.Action) (bool, error) {
	var gated bool
	var startDrain bool
	err := call.Mutate(callID, func(record *call.Record) {
		record.ActionQueue = append(record.ActionQueue, action)
		gated = record.AMD && !record.AMDCompleted
		if !gated && !record.IsProcessingActions {
			record.IsProcessingActions = true
			startDrain = true
		}
	})
	if err != nil {
		return false, err
	}
	if startDrain {
		go drainActions(ctx, callID)
	}
	return gated, nil
}

// StartActionDrain kicks the queue after AMD classification unblocks it
func StartActionDrain(ctx context.Context, callID string) {
	var startDrain bool
	call.Mutate(callID, func(record *call.Record) {
		if len(record.ActionQueue) > 0 && !record.IsProcessingActions {
			record.IsProcessingActions = true
			startDrain = true
		}
	})
	if startDrain {
		go drainActions(ctx, callID)
	}
}

func drainActions(ctx context.Context, callID string) {
	defer call.Mutate(callID, func(record *call.Record) {
		record.IsProcessingActions = false
	})

	for {
		record, err := call.Get(callID)
		if err != nil {
			return
		}
		if record.AMD && record.AMDCompleted && !record.PostAMDDelayDone {
			time.Sleep(postAMDSettleDelay)
			call.Mutate(callID, func(r *call.Record) {
				r.PostAMDDelayDone = true
			})
		}

		var action call.Action
		var empty bool
		err = call.Mutate(callID, func(r *call.Record) {
			if len(r.ActionQueue) == 0 {
				empty = true
				return
			}
			action = r.ActionQueue[0]
			r.ActionQueue = r.ActionQueue[1:]
		})
		if err != nil || empty {
			return
		}

		if !probeChannel(ctx, callID, record.ChannelID) {
			abortActionQueue(ctx, callID, record.CallbackURL, ErrChannelGone)
			return
		}

		if err := runAction(ctx, callID, action); err != nil {
			if err == ErrChannelGone || err == asterisk.ErrChannelNotFound || err == call.ErrCallNotFound {
				abortActionQueue(ctx, callID, record.CallbackURL, err)
				return
			}
			ymlogger.LogErrorf(callID, "Action [%s] failed. Error: [%#v]", action.Type, err)
			callback.Send(callID, record.CallbackURL, "action.error", map[string]interface{}{
				"action": action.Type,
				"error":  err.Error(),
			})
		}
	}
}

func executeAction(ctx context.Context, callID string, action call.Action) error {
	switch action.Type {
	case call.ActionPlayText:
		return EnqueueAndWait(ctx, callID, call.PlaybackItem{
			Type:  call.PlaybackItemText,
			Text:  action.Text,
			Voice: action.Voice,
		})
	case call.ActionPlayAudio:
		return EnqueueAndWait(ctx, callID, call.PlaybackItem{
			Type: call.PlaybackItemAudio,
			URL:  action.AudioURL,
		})
	case call.ActionGatherText, call.ActionGatherAudio:
		_, err := GatherDigits(ctx, callID, action)
		return err
	}
	ymlogger.LogErrorf(callID, "Unknown action type [%s]", action.Type)
	return nil
}

// abortActionQueue drops the remaining actions after a fatal channel error
func abortActionQueue(ctx context.Context, callID string, callbackURL string, cause error) {
	var remaining int
	call.Mutate(callID, func(record *call.Record) {
		remaining = len(record.ActionQueue)
		record.ActionQueue = nil
	})
	ymlogger.LogErrorf(callID, "Aborting the action queue with [%d] pending actions. Cause: [%v]", remaining, cause)
	callback.Send(callID, callbackURL, "actionqueue.error", map[string]interface{}{
		"error":          cause.Error(),
		"droppedActions": remaining,
	})
}
