package call

import (
	"os"
	"testing"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/globals"
)

func TestMain(m *testing.M) {
	globals.InitCounter()
	os.Exit(m.Run())
}

func TestRegistryLifecycle(t *testing.T) {
	callID := "lifecycle-call"
	Create(callID, &Record{
		ChannelID:   "channel-1",
		CallbackURL: "http://callback.test/hook",
	})
	defer Delete(callID)

	record, err := Get(callID)
	if err != nil {
		t.Fatalf("Expected the record to exist, got error %v", err)
	}
	if record.Status != StatusInitiated {
		t.Errorf("Expected the fresh record to be %s, got %s", StatusInitiated, record.Status)
	}
	if record.StartTime.IsZero() {
		t.Error("Expected StartTime to be set on create")
	}
	if record.TTSCache == nil {
		t.Error("Expected the TTS cache to be initialized")
	}

	if err := Mutate(callID, func(r *Record) {
		r.Status = StatusAnswered
		r.CallAnswered = true
	}); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	record, _ = Get(callID)
	if record.Status != StatusAnswered || !record.CallAnswered {
		t.Errorf("Mutation did not stick, got %+v", record)
	}

	// Get returns a snapshot, writes to it must not leak back
	record.Status = StatusCompleted
	fresh, _ := Get(callID)
	if fresh.Status != StatusAnswered {
		t.Errorf("Snapshot write leaked into the registry, got %s", fresh.Status)
	}

	Delete(callID)
	if _, err := Get(callID); err != ErrCallNotFound {
		t.Errorf("Expected ErrCallNotFound after delete, got %v", err)
	}
	// Double delete must be harmless
	Delete(callID)
}

func TestFindCallIDByChannel(t *testing.T) {
	callID := "channel-scan-call"
	Create(callID, &Record{
		ChannelID:         "main-channel",
		PreAmdChannelID:   "pre-amd-channel",
		SnoopChannelID:    "snoop-channel",
		TransferChannelID: "transfer-leg",
	})
	defer Delete(callID)

	for _, channelID := range []string{"main-channel", "pre-amd-channel", "snoop-channel", "transfer-leg"} {
		found, err := FindCallIDByChannel(channelID)
		if err != nil {
			t.Errorf("Lookup by %s failed: %v", channelID, err)
			continue
		}
		if found != callID {
			t.Errorf("Lookup by %s returned %s, want %s", channelID, found, callID)
		}
	}
	if _, err := FindCallIDByChannel("unknown-channel"); err != ErrCallNotFound {
		t.Errorf("Expected ErrCallNotFound for an unknown channel, got %v", err)
	}
}

func TestOldestActiveCallForUser(t *testing.T) {
	base := time.Now()
	Create("user7-old", &Record{UserID: 7, StartTime: base.Add(-3 * time.Minute)})
	Create("user7-new", &Record{UserID: 7, StartTime: base.Add(-1 * time.Minute)})
	Create("user7-done", &Record{UserID: 7, StartTime: base.Add(-10 * time.Minute), Status: StatusCompleted})
	Create("user8-call", &Record{UserID: 8, StartTime: base.Add(-20 * time.Minute)})
	defer func() {
		for _, id := range []string{"user7-old", "user7-new", "user7-done", "user8-call"} {
			Delete(id)
		}
	}()

	if got := ActiveCallsForUser(7); got != 2 {
		t.Errorf("Expected 2 active calls for user 7, got %d", got)
	}

	oldest, ok := OldestActiveCallForUser(7)
	if !ok {
		t.Fatal("Expected an oldest active call for user 7")
	}
	if oldest != "user7-old" {
		t.Errorf("Expected user7-old to be evicted first, got %s", oldest)
	}

	if _, ok := OldestActiveCallForUser(99); ok {
		t.Error("Expected no active call for an unknown user")
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for _, status := range []string{StatusCompleted, StatusFailed, StatusTerminated} {
		if !IsTerminalStatus(status) {
			t.Errorf("Expected %s to be terminal", status)
		}
	}
	for _, status := range []string{StatusInitiated, StatusAnswered, StatusMachine, StatusNotSure, StatusBridging, StatusBridged, StatusHold} {
		if IsTerminalStatus(status) {
			t.Errorf("Expected %s to be non-terminal", status)
		}
	}
}
