package eventhandler

import (
	"context"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/assistant"
	"bitbucket.org/yellowmessenger/callcontrol-ari/billing"
	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/callback"
	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/media"
	"bitbucket.org/yellowmessenger/callcontrol-ari/models/mysql"
	"bitbucket.org/yellowmessenger/callcontrol-ari/newrelic"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/asterisk"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/azure"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	"github.com/CyCoreSystems/ari"
)

// ChannelDestroyedHandler finalizes a call when its channel goes away. For
// the transfer leg it only ends the bridge; for snoop channels it clears the
// recording state.
func ChannelDestroyedHandler(ctx context.Context, v *ari.ChannelDestroyed) {
	callID, err := call.FindCallIDByChannel(v.Channel.ID)
	if err != nil {
		return
	}
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	switch v.Channel.ID {
	case record.TransferChannelID:
		media.EndTransfer(ctx, callID, false)
		return
	case record.SnoopChannelID:
		call.Mutate(callID, func(r *call.Record) {
			r.SnoopChannelID = ""
		})
		return
	}
	FinalizeCall(ctx, callID, v.Cause)
}

// Finalize seams, swapped in tests
var (
	notifyCallback = callback.Send
	persistCallEnd = mysql.MarkCallEnded
)

// FinalizeCall runs call-end cleanup and billing exactly once, then deletes
// the record
func FinalizeCall(ctx context.Context, callID string, causeCode int) {
	var already bool
	err := call.Mutate(callID, func(record *call.Record) {
		if call.IsTerminalStatus(record.Status) && !record.EndTime.IsZero() {
			already = true
			return
		}
		record.EndTime = time.Now()
		if record.IsOnHold {
			record.IsOnHold = false
			record.TotalHoldDuration += time.Since(record.HoldStartTime).Milliseconds()
		}
		if record.Status == call.StatusTerminated {
			return
		}
		if record.CallAnswered {
			record.Status = call.StatusCompleted
		} else {
			record.Status = call.StatusFailed
		}
	})
	if err != nil || already {
		return
	}
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	ymlogger.LogInfof(callID, "Finalizing the call. Status: [%s] Cause: [%d]", record.Status, causeCode)

	if record.TransferTimer != nil || len(record.BridgeID) > 0 || len(record.TransferChannelID) > 0 {
		media.EndTransfer(ctx, callID, true)
	}
	if assistant.Running(callID) {
		assistant.Stop(ctx, callID, "call_ended")
	}
	if len(record.SnoopChannelID) > 0 {
		asterisk.HangupChannel(ctx, callID, record.SnoopChannelID, "normal")
	}
	media.ReleasePlaybackState(ctx, callID)

	recordingURL := ""
	if len(record.RecordingFilePath) > 0 {
		recordingURL, err = azure.UploadRecording(ctx, callID, record.RecordingFilePath)
		if err != nil {
			ymlogger.LogErrorf(callID, "Failed to upload the recording. Error: [%#v]", err)
			recordingURL = ""
		}
	}

	duration := talkSeconds(record)

	data, billed := settleBilling(ctx, callID, record, duration, causeCode, recordingURL)
	if !billed {
		// Degraded completed callback: duration and recording only
		data = map[string]interface{}{
			"cause":     call.CauseText(causeCode),
			"duration":  duration,
			"recording": recordingURL,
		}
	}
	// The end-of-call webhook is always "completed"; failure shows up in the
	// cause, duration and failed-call count.
	notifyCallback(callID, record.CallbackURL, "completed", data)

	newrelic.SendCustomEvent("call_completed", map[string]interface{}{
		"status":   record.Status,
		"duration": duration,
		"cause":    causeCode,
	})

	for _, file := range record.TTSFiles {
		azure.DeleteSpeechFile(callID, file)
	}
	persistCallEnd(callID, record.Status)
	call.Delete(callID)
}

// talkSeconds is the answered duration with accumulated hold time excluded.
// Unanswered calls have no talk time.
func talkSeconds(record call.Record) int {
	if !record.CallAnswered {
		return 0
	}
	duration := int(record.EndTime.Sub(record.ActualAnswerTime).Seconds()) - int(record.TotalHoldDuration/1000)
	if duration < 0 {
		duration = 0
	}
	return duration
}

// settleBilling computes the charge and deducts it from the user's balance.
// A failed lookup degrades the completed callback instead of failing the
// cleanup.
func settleBilling(
	ctx context.Context,
	callID string,
	record call.Record,
	duration int,
	causeCode int,
	recordingURL string,
) (map[string]interface{}, bool) {
	billableDuration := billing.CalculateBillableDuration(duration, record.BillingIncrement, configmanager.ConfStore.MinChargeableSecs)
	charge := billing.CalculateCharge(billableDuration, record.PricePerSecond)

	data := map[string]interface{}{
		"cause":            call.CauseText(causeCode),
		"duration":         duration,
		"billableDuration": billableDuration,
		"billingIncrement": record.BillingIncrement,
		"pricePerMinute":   billing.CalculateCharge(60, record.PricePerSecond),
		"charge":           charge,
		"recording":        recordingURL,
	}

	if billableDuration <= 0 {
		if record.UserID > 0 {
			if err := mysql.IncrementFailedCalls(record.UserID); err != nil {
				ymlogger.LogErrorf(callID, "Failed to count the failed call. Error: [%#v]", err)
			}
		}
		data["charge"] = 0.0
		return data, true
	}
	if record.UserID <= 0 {
		return nil, false
	}

	balance, err := mysql.GetUserBalance(record.UserID)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to fetch the balance for billing. Error: [%#v]", err)
		return nil, false
	}
	if balance < charge {
		ymlogger.LogErrorf(callID, "Insufficient balance to charge [%f]. Balance: [%f]", charge, balance)
		mysql.IncrementFailedCalls(record.UserID)
		mysql.InsertUserLog(record.UserID, callID, "insufficient_balance", "Call completed but balance did not cover the charge")
		data["charge"] = 0.0
		return data, true
	}
	if err := mysql.DeductUserBalance(record.UserID, charge); err != nil {
		ymlogger.LogErrorf(callID, "Failed to deduct the charge. Error: [%#v]", err)
		return nil, false
	}
	return data, true
}

// TerminateCall evicts a live call: hangs up its channel, marks it
// terminated and notifies the callback URL. Used by admission eviction and
// by shutdown.
func TerminateCall(ctx context.Context, callID string, reason string) {
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	call.Mutate(callID, func(r *call.Record) {
		r.Status = call.StatusTerminated
	})
	if len(record.ChannelID) > 0 {
		asterisk.HangupChannel(ctx, callID, record.ChannelID, "normal")
	}
	if assistant.Running(callID) {
		assistant.Stop(ctx, callID, reason)
	}
	media.ReleasePlaybackState(ctx, callID)
	callback.Send(callID, record.CallbackURL, "terminated", map[string]interface{}{
		"reason": reason,
	})
	mysql.MarkCallEnded(callID, call.StatusTerminated)
	call.Delete(callID)
}
