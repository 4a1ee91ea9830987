package audio

import (
	"encoding/binary"
	"testing"
)

func pcmFromSamples(samples []int16) []byte {
	data := make([]byte, 2*len(samples))
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(sample))
	}
	return data
}

func TestHasVoice(t *testing.T) {
	t.Run("SilentChunk", func(t *testing.T) {
		chunk := pcmFromSamples([]int16{0, 12, -30, 999, -999})
		if HasVoice(chunk, DefaultVADThreshold) {
			t.Error("Expected silence, found voice")
		}
	})

	t.Run("VoicedChunk", func(t *testing.T) {
		chunk := pcmFromSamples([]int16{0, 0, 1500, 0})
		if !HasVoice(chunk, DefaultVADThreshold) {
			t.Error("Expected voice, found silence")
		}
	})

	t.Run("NegativeAmplitudeCounts", func(t *testing.T) {
		chunk := pcmFromSamples([]int16{0, -2000, 0})
		if !HasVoice(chunk, DefaultVADThreshold) {
			t.Error("Expected voice for negative amplitude, found silence")
		}
	})

	t.Run("ThresholdIsExclusive", func(t *testing.T) {
		chunk := pcmFromSamples([]int16{1000, -1000})
		if HasVoice(chunk, DefaultVADThreshold) {
			t.Error("Samples at the threshold should not count as voice")
		}
	})
}

func TestPCMToWav(t *testing.T) {
	pcm := pcmFromSamples([]int16{0, 100, -100, 2000})
	wavData, err := PCMToWav(pcm, SampleRate)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(wavData) <= 44 {
		t.Fatalf("Expected wav data beyond the header, found %d bytes", len(wavData))
	}
	if string(wavData[:4]) != "RIFF" {
		t.Errorf("Expected RIFF header, found %q", string(wavData[:4]))
	}
	stripped := StripWavHeader(wavData)
	if len(stripped) < len(pcm) {
		t.Errorf("Expected at least %d PCM bytes after the header, found %d", len(pcm), len(stripped))
	}
}

func TestPCMToWavEmpty(t *testing.T) {
	if _, err := PCMToWav(nil, SampleRate); err == nil {
		t.Error("Expected an error for empty PCM data")
	}
}
