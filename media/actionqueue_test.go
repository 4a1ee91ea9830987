package media

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

func stubDrainLoop(executed chan string) func() {
	origProbe := probeChannel
	origRun := runAction
	probeChannel = func(ctx context.Context, callID string, channelID string) bool {
		return true
	}
	runAction = func(ctx context.Context, callID string, action call.Action) error {
		executed <- action.Type
		return nil
	}
	return func() {
		probeChannel = origProbe
		runAction = origRun
	}
}

func waitExecuted(t *testing.T, executed chan string) string {
	t.Helper()
	select {
	case actionType := <-executed:
		return actionType
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for an action to execute")
		return ""
	}
}

func TestActionQueueGatedUntilClassification(t *testing.T) {
	callID := "gated-queue-call"
	call.Create(callID, &call.Record{
		ChannelID:    "chan-gated",
		CallAnswered: true,
		AMD:          true,
	})
	defer call.Delete(callID)

	executed := make(chan string, 8)
	restore := stubDrainLoop(executed)
	defer restore()

	gated, err := EnqueueAction(context.Background(), callID, call.Action{Type: call.ActionPlayText, Text: "first"})
	if err != nil {
		t.Fatalf("Failed to enqueue the first action: %v", err)
	}
	if !gated {
		t.Error("Expected the first action to stay queued before classification")
	}
	gated, err = EnqueueAction(context.Background(), callID, call.Action{Type: call.ActionGatherText, Text: "second", MaxDigits: 4})
	if err != nil {
		t.Fatalf("Failed to enqueue the second action: %v", err)
	}
	if !gated {
		t.Error("Expected the second action to stay queued before classification")
	}

	select {
	case actionType := <-executed:
		t.Fatalf("Action [%s] executed before classification arrived", actionType)
	case <-time.After(100 * time.Millisecond):
	}
	record, err := call.Get(callID)
	if err != nil {
		t.Fatalf("Failed to read the record: %v", err)
	}
	if len(record.ActionQueue) != 2 {
		t.Fatalf("Expected 2 queued actions, found %d", len(record.ActionQueue))
	}

	call.Mutate(callID, func(r *call.Record) {
		r.AMDCompleted = true
	})
	StartActionDrain(context.Background(), callID)

	if first := waitExecuted(t, executed); first != call.ActionPlayText {
		t.Errorf("Expected %s to run first, got %s", call.ActionPlayText, first)
	}
	if second := waitExecuted(t, executed); second != call.ActionGatherText {
		t.Errorf("Expected %s to run second, got %s", call.ActionGatherText, second)
	}
}

func TestActionQueueImmediateWithoutAMD(t *testing.T) {
	callID := "ungated-queue-call"
	call.Create(callID, &call.Record{
		ChannelID:    "chan-ungated",
		CallAnswered: true,
	})
	defer call.Delete(callID)

	executed := make(chan string, 8)
	restore := stubDrainLoop(executed)
	defer restore()

	gated, err := EnqueueAction(context.Background(), callID, call.Action{Type: call.ActionPlayAudio, AudioURL: "http://audio.test/a.wav"})
	if err != nil {
		t.Fatalf("Failed to enqueue the action: %v", err)
	}
	if gated {
		t.Error("Actions should not be gated when the call has no machine detection")
	}
	if actionType := waitExecuted(t, executed); actionType != call.ActionPlayAudio {
		t.Errorf("Expected %s to execute, got %s", call.ActionPlayAudio, actionType)
	}
}
