package eventhandler

import (
	"context"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/callback"
	"bitbucket.org/yellowmessenger/callcontrol-ari/media"
	"bitbucket.org/yellowmessenger/callcontrol-ari/models/mysql"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/asterisk"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	"github.com/CyCoreSystems/ari"
	guuid "github.com/google/uuid"
)

// postAMDDrainDelay lets the channel settle after the dialplan hands it back
const postAMDDrainDelay = 100 * time.Millisecond

// StasisStartHandler routes the three kinds of stasis entries: the snoop
// channel, the forward leg of a transfer, and the call channel itself (first
// entry or re-entry with an AMD classification in the args).
func StasisStartHandler(ctx context.Context, v *ari.StasisStart) {
	if isSnoopChannel(v.Channel.Name) {
		SnoopEnteredHandler(ctx, v.Channel.ID)
		return
	}
	if len(v.Args) == 0 {
		ymlogger.LogErrorf("EventLoop", "Stasis entry without args. Channel: [%s]", v.Channel.ID)
		return
	}
	callID := v.Args[0]
	if !call.Exists(callID) {
		ymlogger.LogErrorf(callID, "Stasis entry for an unknown call. Hanging up channel [%s]", v.Channel.ID)
		asterisk.HangupChannel(ctx, callID, v.Channel.ID, "normal")
		return
	}
	if len(v.Args) >= 2 && v.Args[1] == "transfer" {
		media.CompleteTransfer(ctx, callID, v.Channel.ID)
		return
	}
	if len(v.Args) >= 2 {
		amdCause := ""
		if len(v.Args) >= 3 {
			amdCause = v.Args[2]
		}
		AMDReentryHandler(ctx, callID, v.Channel.ID, v.Args[1], amdCause)
		return
	}
	ChannelEnteredHandler(ctx, callID, v.Channel.ID)
}

// ChannelEnteredHandler answers the freshly originated channel. The answered
// transition itself fires from the channel-up state change.
func ChannelEnteredHandler(ctx context.Context, callID string, channelID string) {
	call.Mutate(callID, func(record *call.Record) {
		record.ChannelID = channelID
	})
	if err := asterisk.AnswerChannel(ctx, callID, channelID); err != nil {
		ymlogger.LogErrorf(callID, "Failed to answer the channel. Error: [%#v]", err)
	}
}

// ChannelStateChangeHandler marks the call answered when its channel goes Up
func ChannelStateChangeHandler(ctx context.Context, v *ari.ChannelStateChange) {
	if v.Channel.State != "Up" {
		return
	}
	callID, err := call.FindCallIDByChannel(v.Channel.ID)
	if err != nil {
		return
	}
	ChannelUpHandler(ctx, callID, v.Channel.ID)
}

// ChannelUpHandler runs the answered transition exactly once: callback,
// AMD redirect when requested, else recording plus action drain.
func ChannelUpHandler(ctx context.Context, callID string, channelID string) {
	var first bool
	var amd bool
	err := call.Mutate(callID, func(record *call.Record) {
		if record.CallAnswered {
			return
		}
		record.CallAnswered = true
		record.ActualAnswerTime = time.Now()
		record.Status = call.StatusAnswered
		first = true
		amd = record.AMD
	})
	if err != nil || !first {
		return
	}
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	mysql.UpdateCallStatus(callID, call.StatusAnswered)
	callback.Send(callID, record.CallbackURL, "answered", map[string]interface{}{})

	if amd {
		call.Mutate(callID, func(r *call.Record) {
			r.PreAmdChannelID = channelID
		})
		if err := asterisk.ContinueToAMD(ctx, callID, channelID); err != nil {
			ymlogger.LogErrorf(callID, "Failed to continue the channel to AMD. Error: [%#v]", err)
			callback.Send(callID, record.CallbackURL, "amd.error", map[string]interface{}{
				"error": err.Error(),
			})
			call.Mutate(callID, func(r *call.Record) {
				r.AMDCompleted = true
			})
			startCallMedia(ctx, callID, channelID)
		}
		return
	}
	startCallMedia(ctx, callID, channelID)
}

// AMDReentryHandler picks the call back up after machine detection. The
// channel id can differ from the pre-AMD one, so the record is refreshed.
func AMDReentryHandler(ctx context.Context, callID string, channelID string, amdStatus string, amdCause string) {
	record, err := call.Get(callID)
	if err != nil {
		return
	}

	var status, state string
	switch amdStatus {
	case call.AMDStatusMachine:
		status = call.StatusMachine
		state = "amd.machine"
	case call.AMDStatusHuman:
		status = call.StatusAnswered
		state = "amd.human"
	case call.AMDStatusNotSure:
		status = call.StatusNotSure
		state = "amd.unknown"
	default:
		ymlogger.LogErrorf(callID, "Unrecognized AMD classification [%s]", amdStatus)
		status = call.StatusNotSure
		state = "amd.unknown"
	}
	call.Mutate(callID, func(r *call.Record) {
		r.ChannelID = channelID
		r.Status = status
		r.AMDCompleted = true
	})
	mysql.UpdateCallStatus(callID, status)
	if record.PreAmdChannelID != channelID {
		mysql.UpdateCallChannel(callID, channelID)
	}
	callback.Send(callID, record.CallbackURL, state, map[string]interface{}{
		"cause": amdCause,
	})

	time.Sleep(postAMDDrainDelay)
	if !asterisk.ChannelExists(ctx, callID, channelID) {
		ymlogger.LogErrorf(callID, "Channel disappeared after AMD. Waiting for the destroyed event")
		return
	}
	startCallMedia(ctx, callID, channelID)
}

// startCallMedia starts the passive recording and unblocks the action queue
func startCallMedia(ctx context.Context, callID string, channelID string) {
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	if len(record.SnoopChannelID) == 0 {
		snoopID := "snoop-" + guuid.New().String()
		snoopData, err := asterisk.SnoopChannel(ctx, callID, channelID, "both", snoopID)
		if err != nil {
			ymlogger.LogErrorf(callID, "Failed to snoop the channel. Error: [%#v]", err)
			callback.Send(callID, record.CallbackURL, "recording.error", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			call.Mutate(callID, func(r *call.Record) {
				r.SnoopChannelID = snoopData.ID
			})
		}
	}
	media.StartActionDrain(ctx, callID)
}

// SnoopEnteredHandler starts recording once the snoop channel is in stasis
func SnoopEnteredHandler(ctx context.Context, snoopChannelID string) {
	callID, err := call.FindCallIDByChannel(snoopChannelID)
	if err != nil {
		ymlogger.LogErrorf("EventLoop", "Snoop channel [%s] has no owning call", snoopChannelID)
		return
	}
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	recordingName := "recording-" + callID
	if err := asterisk.RecordChannel(ctx, callID, snoopChannelID, recordingName); err != nil {
		ymlogger.LogErrorf(callID, "Failed to record the snoop channel. Error: [%#v]", err)
		callback.Send(callID, record.CallbackURL, "recording.error", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	call.Mutate(callID, func(r *call.Record) {
		r.RecordingName = recordingName
		r.RecordingFilePath = recordingFilePath(recordingName)
	})
}

// RecordingFailedHandler surfaces a failed recording to the callback URL
func RecordingFailedHandler(ctx context.Context, v *ari.RecordingFailed) {
	callID, err := call.FindCallIDByChannel(channelIDFromTargetURI(v.Recording.TargetURI))
	if err != nil {
		return
	}
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	ymlogger.LogErrorf(callID, "Recording [%s] failed", v.Recording.Name)
	callback.Send(callID, record.CallbackURL, "recording.error", map[string]interface{}{
		"recording": v.Recording.Name,
	})
}
