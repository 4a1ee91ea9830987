package eventhandler

import (
	"context"
	"os"
	"testing"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/globals"
)

func TestMain(m *testing.M) {
	globals.InitCounter()
	os.Exit(m.Run())
}

func TestTalkSeconds(t *testing.T) {
	answered := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	t.Run("HoldTimeExcluded", func(t *testing.T) {
		record := call.Record{
			CallAnswered:      true,
			ActualAnswerTime:  answered,
			EndTime:           answered.Add(90 * time.Second),
			TotalHoldDuration: 25000,
		}
		if got := talkSeconds(record); got != 65 {
			t.Errorf("Expected 65 talk seconds with 25s on hold, got %d", got)
		}
	})

	t.Run("HoldLongerThanCallClampsToZero", func(t *testing.T) {
		record := call.Record{
			CallAnswered:      true,
			ActualAnswerTime:  answered,
			EndTime:           answered.Add(10 * time.Second),
			TotalHoldDuration: 30000,
		}
		if got := talkSeconds(record); got != 0 {
			t.Errorf("Expected 0 talk seconds, got %d", got)
		}
	})

	t.Run("UnansweredHasNoTalkTime", func(t *testing.T) {
		record := call.Record{
			EndTime: answered.Add(30 * time.Second),
		}
		if got := talkSeconds(record); got != 0 {
			t.Errorf("Expected 0 talk seconds for an unanswered call, got %d", got)
		}
	})
}

func TestFinalizeCallSendsCompletedState(t *testing.T) {
	callID := "finalize-unanswered-call"
	call.Create(callID, &call.Record{
		ChannelID:   "chan-final",
		CallbackURL: "http://callback.test/hook",
	})

	var sentState string
	var persistedStatus string
	origNotify := notifyCallback
	origPersist := persistCallEnd
	notifyCallback = func(callID string, callbackURL string, state string, data map[string]interface{}) {
		sentState = state
	}
	persistCallEnd = func(callID string, status string) error {
		persistedStatus = status
		return nil
	}
	defer func() {
		notifyCallback = origNotify
		persistCallEnd = origPersist
	}()

	FinalizeCall(context.Background(), callID, 19)

	if sentState != "completed" {
		t.Errorf("Expected the end-of-call webhook state to be completed, got %q", sentState)
	}
	if persistedStatus != call.StatusFailed {
		t.Errorf("Expected the unanswered call to persist as failed, got %q", persistedStatus)
	}
	if call.Exists(callID) {
		t.Error("Expected the record to be deleted after finalize")
	}
}
