package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SampleRate of the Asterisk recording stream
const SampleRate = 8000

// DefaultVADThreshold is the absolute 16-bit amplitude treated as voice
const DefaultVADThreshold = 1000

// HasVoice reports whether any 16-bit little-endian sample in the chunk
// exceeds the amplitude threshold
func HasVoice(chunk []byte, threshold int16) bool {
	for i := 0; i+1 < len(chunk); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(chunk[i : i+2]))
		if sample > threshold || sample < -threshold {
			return true
		}
	}
	return false
}

// PCMToWav wraps raw 16-bit mono PCM into a wav container
func PCMToWav(pcm []byte, sampleRate int) ([]byte, error) {
	if len(pcm) < 2 {
		return nil, errors.New("Empty PCM data")
	}
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i : 2*i+2])))
	}
	buffer := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}

	var out seekableBuffer
	encoder := wav.NewEncoder(&out, sampleRate, 16, 1, 1)
	if err := encoder.Write(buffer); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return out.data, nil
}

// seekableBuffer gives the wav encoder the WriteSeeker it needs without
// touching the disk
type seekableBuffer struct {
	data []byte
	pos  int
}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	if b.pos+len(p) > len(b.data) {
		grown := make([]byte, b.pos+len(p))
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = b.pos + int(offset)
	case io.SeekEnd:
		next = len(b.data) + int(offset)
	default:
		return 0, errors.New("Invalid whence")
	}
	if next < 0 {
		return 0, errors.New("Negative seek position")
	}
	b.pos = next
	return int64(next), nil
}

// StripWavHeader drops the RIFF header so only PCM samples remain
func StripWavHeader(data []byte) []byte {
	if len(data) > 44 && bytes.Equal(data[:4], []byte("RIFF")) {
		return data[44:]
	}
	return data
}
