package assistant

import (
	"context"
	"encoding/binary"
	"fmt"
	"testing"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/openaiclient"
)

func TestAppendTrimmed(t *testing.T) {
	t.Run("UnderLimitKeepsEverything", func(t *testing.T) {
		messages := []openaiclient.Message{{Role: roleSystem, Content: "instructions"}}
		for i := 0; i < 5; i++ {
			messages = appendTrimmed(messages, openaiclient.Message{Role: roleUser, Content: fmt.Sprintf("turn-%d", i)})
		}
		if len(messages) != 6 {
			t.Fatalf("Expected 6 messages, found %d", len(messages))
		}
	})

	t.Run("OverLimitDropsOldestTurns", func(t *testing.T) {
		messages := []openaiclient.Message{{Role: roleSystem, Content: "instructions"}}
		for i := 0; i < 50; i++ {
			messages = appendTrimmed(messages, openaiclient.Message{Role: roleUser, Content: fmt.Sprintf("turn-%d", i)})
		}
		if len(messages) != historyLimit+1 {
			t.Fatalf("Expected %d messages, found %d", historyLimit+1, len(messages))
		}
		if messages[0].Role != roleSystem {
			t.Errorf("Expected the system message to survive trimming, found role %q", messages[0].Role)
		}
		if messages[1].Content != "turn-30" {
			t.Errorf("Expected oldest surviving turn to be turn-30, found %q", messages[1].Content)
		}
		if messages[len(messages)-1].Content != "turn-49" {
			t.Errorf("Expected newest turn to be turn-49, found %q", messages[len(messages)-1].Content)
		}
	})
}

func pcmChunk(amplitude int16, samples int) []byte {
	chunk := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(chunk[2*i:], uint16(amplitude))
	}
	return chunk
}

func TestProcessChunkDiscardsShortUtterance(t *testing.T) {
	a := &Assistant{
		callID:      "vad-floor-call",
		params:      normalizeParams(Params{}),
		isActive:    true,
		isListening: true,
		lastVoiced:  time.Now(),
	}
	base := time.Now()
	voiced := pcmChunk(4000, 160)
	silent := pcmChunk(10, 160)

	a.processChunk(context.Background(), voiced, base)
	if !a.inSpeech {
		t.Fatal("Expected a voiced chunk to open an utterance")
	}

	// Silence 300ms in arms the timer; its expiry closes a 300ms utterance
	a.processChunk(context.Background(), silent, base.Add(300*time.Millisecond))
	a.processChunk(context.Background(), silent, base.Add(2*time.Second))

	if a.inSpeech {
		t.Error("Expected the utterance to be closed after the silence timer fired")
	}
	if a.isProcessing {
		t.Error("A 300ms utterance is below the speech floor and should not start a turn")
	}
	if !a.isListening {
		t.Error("Listening should continue after a discarded utterance")
	}
	if len(a.speechBuf) != 0 {
		t.Errorf("Expected the speech buffer to be cleared, found %d bytes", len(a.speechBuf))
	}
}

func TestProcessChunkVoiceResetsSilenceTimer(t *testing.T) {
	a := &Assistant{
		callID:      "vad-reset-call",
		params:      normalizeParams(Params{}),
		isActive:    true,
		isListening: true,
		lastVoiced:  time.Now(),
	}
	base := time.Now()
	voiced := pcmChunk(4000, 160)
	silent := pcmChunk(10, 160)

	a.processChunk(context.Background(), voiced, base)
	a.processChunk(context.Background(), silent, base.Add(200*time.Millisecond))
	if a.silenceAfter.IsZero() {
		t.Fatal("Expected the first silent chunk to arm the silence timer")
	}
	a.processChunk(context.Background(), voiced, base.Add(400*time.Millisecond))
	if !a.silenceAfter.IsZero() {
		t.Error("Expected renewed voice to disarm the silence timer")
	}
	if !a.inSpeech {
		t.Error("Expected the utterance to stay open across renewed voice")
	}
}

func TestNormalizeParams(t *testing.T) {
	params := normalizeParams(Params{})
	if params.SilenceMillis != 1500 {
		t.Errorf("Expected default silence of 1500ms, found %d", params.SilenceMillis)
	}
	if params.MaxSilenceSecs != 30 {
		t.Errorf("Expected default max silence of 30s, found %d", params.MaxSilenceSecs)
	}

	params = normalizeParams(Params{SilenceMillis: 800, MaxSilenceSecs: 60})
	if params.SilenceMillis != 800 || params.MaxSilenceSecs != 60 {
		t.Errorf("Expected explicit values to survive, found %d/%d", params.SilenceMillis, params.MaxSilenceSecs)
	}
}
