package media

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/callback"
	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/phonenumber"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/asterisk"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	guuid "github.com/google/uuid"
)

// transferDigitLimit caps the per-leg relay accumulator
const transferDigitLimit = 10

// Transfer dials the forward number as a second leg and bridges it with the
// caller once it answers. A call on hold is taken off hold first.
func Transfer(ctx context.Context, callID string, forward string) error {
	record, err := call.Get(callID)
	if err != nil {
		return err
	}
	if record.IsOnHold {
		if err := Unhold(ctx, callID); err != nil {
			return err
		}
	}

	forwardNumber := phonenumber.NewPhoneNumber(forward)
	if err := forwardNumber.Parse(); err != nil {
		return err
	}
	callerID := phonenumber.NewPhoneNumber(record.FromNumber)
	if err := callerID.Parse(); err != nil {
		return err
	}

	call.Mutate(callID, func(r *call.Record) {
		r.Status = call.StatusBridging
		r.BridgedEnded = false
		r.LegADigits = ""
		r.LegBDigits = ""
	})
	callback.Send(callID, record.CallbackURL, "bridging", map[string]interface{}{
		"forward": forwardNumber.E164Format,
	})

	legB, err := asterisk.OriginateTransferLeg(ctx, callID, forwardNumber, callerID)
	if err != nil {
		call.Mutate(callID, func(r *call.Record) {
			r.Status = call.StatusAnswered
		})
		return err
	}

	timer := time.AfterFunc(time.Duration(configmanager.ConfStore.TransferTotalTime)*time.Second, func() {
		ymlogger.LogInfof(callID, "Transfer total time reached. Ending the transfer")
		EndTransfer(context.Background(), callID, true)
	})
	call.Mutate(callID, func(r *call.Record) {
		r.TransferChannelID = legB.ID
		r.TransferTimer = timer
	})
	return nil
}

// CompleteTransfer bridges the two legs once the forward leg enters stasis
func CompleteTransfer(ctx context.Context, callID string, legBChannelID string) {
	record, err := call.Get(callID)
	if err != nil {
		ymlogger.LogErrorf(legBChannelID, "Transfer leg entered stasis for an unknown call")
		return
	}
	bridgeID := guuid.New().String()
	if _, err := asterisk.CreateBridge(ctx, callID, bridgeID); err != nil {
		ymlogger.LogErrorf(callID, "Failed to create the transfer bridge. Error: [%#v]", err)
		asterisk.HangupChannel(ctx, callID, legBChannelID, "normal")
		return
	}
	if err := asterisk.AddChannelToBridge(ctx, callID, bridgeID, record.ChannelID); err != nil {
		ymlogger.LogErrorf(callID, "Failed to add the caller leg to the bridge. Error: [%#v]", err)
	}
	if err := asterisk.AddChannelToBridge(ctx, callID, bridgeID, legBChannelID); err != nil {
		ymlogger.LogErrorf(callID, "Failed to add the forward leg to the bridge. Error: [%#v]", err)
	}
	call.Mutate(callID, func(r *call.Record) {
		r.BridgeID = bridgeID
		r.Status = call.StatusBridged
	})
	callback.Send(callID, record.CallbackURL, "bridged", map[string]interface{}{})
}

// EndTransfer tears the bridge down exactly once. Safe to call from the
// total-time timer, a leg hangup, or call-end cleanup.
func EndTransfer(ctx context.Context, callID string, hangupLeg bool) {
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	var alreadyEnded bool
	call.Mutate(callID, func(r *call.Record) {
		alreadyEnded = r.BridgedEnded
		r.BridgedEnded = true
		if r.TransferTimer != nil {
			r.TransferTimer.Stop()
			r.TransferTimer = nil
		}
		if !call.IsTerminalStatus(r.Status) && r.Status != call.StatusHold {
			r.Status = call.StatusAnswered
		}
	})
	if alreadyEnded {
		return
	}
	if hangupLeg && len(record.TransferChannelID) > 0 {
		asterisk.HangupChannel(ctx, callID, record.TransferChannelID, "normal")
	}
	if len(record.BridgeID) > 0 {
		asterisk.DestroyBridge(ctx, callID, record.BridgeID)
	}
	call.Mutate(callID, func(r *call.Record) {
		r.BridgeID = ""
		r.TransferChannelID = ""
	})
	callback.Send(callID, record.CallbackURL, "bridged.ended", map[string]interface{}{})
}

// relayTransferDigit accumulates digits per bridged leg and reports each
// group once a terminator arrives or the accumulator fills
func relayTransferDigit(ctx context.Context, callID string, channelID string, digit string) {
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	leg := "caller"
	if channelID == record.TransferChannelID {
		leg = "forward"
	}

	terminator := digit == "#" || digit == "*"
	var digits string
	call.Mutate(callID, func(r *call.Record) {
		if leg == "forward" {
			if !terminator {
				r.LegBDigits += digit
			}
			digits = r.LegBDigits
			if terminator || len(r.LegBDigits) >= transferDigitLimit {
				r.LegBDigits = ""
			}
		} else {
			if !terminator {
				r.LegADigits += digit
			}
			digits = r.LegADigits
			if terminator || len(r.LegADigits) >= transferDigitLimit {
				r.LegADigits = ""
			}
		}
	})
	if terminator || len(digits) >= transferDigitLimit {
		if len(strings.TrimSpace(digits)) > 0 {
			callback.Send(callID, record.CallbackURL, "dtmf.entered", map[string]interface{}{
				"digits": digits,
				"leg":    leg,
			})
		}
	}
}
