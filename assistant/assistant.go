package assistant

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/callback"
	"bitbucket.org/yellowmessenger/callcontrol-ari/media"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/asterisk"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/audio"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/azure"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/openaiclient"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	guuid "github.com/google/uuid"
)

const (
	pollInterval      = 100 * time.Millisecond
	defaultSilence    = 1500 * time.Millisecond
	minSpeechDuration = 500 * time.Millisecond
	defaultMaxSilence = 30 * time.Second
	historyLimit      = 20
	roleSystem        = "system"
	roleUser          = "user"
	roleAssistant     = "assistant"
)

// ErrAssistantExists is returned when start-ai hits a call that already has one
var ErrAssistantExists = errors.New("Assistant already running for this call")

// ErrNoRecording is returned when the call has no passive recording to tail
var ErrNoRecording = errors.New("Call recording is not available")

// ErrAssistantNotFound is returned when stop-ai hits a call without one
var ErrAssistantNotFound = errors.New("Assistant not running for this call")

// ErrCallNotLive is returned when start-ai hits a call that never answered
// or already ended
var ErrCallNotLive = errors.New("Call is not in an answered state")

// Params carries the start-ai request options
type Params struct {
	Instructions      string
	Voice             string
	Greeting          string
	AllowInterruption bool
	SilenceMillis     int
	MaxSilenceSecs    int
	Language          string
}

// Assistant is the per-call conversation loop state
type Assistant struct {
	mu sync.Mutex

	callID      string
	callbackURL string
	params      Params

	messages []openaiclient.Message
	turns    int

	isActive     bool
	isListening  bool
	isProcessing bool

	readOffset   int64
	speechBuf    []byte
	speechStart  time.Time
	inSpeech     bool
	silenceAfter time.Time
	lastVoiced   time.Time
	startedAt    time.Time

	playbackID string
	ttsFiles   []string

	cancel context.CancelFunc
}

var (
	assistants   = make(map[string]*Assistant)
	assistantsMu sync.Mutex
)

func normalizeParams(params Params) Params {
	if params.SilenceMillis <= 0 {
		params.SilenceMillis = int(defaultSilence / time.Millisecond)
	}
	if params.MaxSilenceSecs <= 0 {
		params.MaxSilenceSecs = int(defaultMaxSilence / time.Second)
	}
	return params
}

// Start validates and spins up the assistant loop for a call
func Start(ctx context.Context, callID string, params Params) error {
	record, err := call.Get(callID)
	if err != nil {
		return err
	}
	if !record.CallAnswered || call.IsTerminalStatus(record.Status) {
		return ErrCallNotLive
	}
	if len(record.RecordingFilePath) <= 0 {
		return ErrNoRecording
	}

	assistantsMu.Lock()
	if _, ok := assistants[callID]; ok {
		assistantsMu.Unlock()
		return ErrAssistantExists
	}
	loopCtx, cancel := context.WithCancel(ctx)
	a := &Assistant{
		callID:      callID,
		callbackURL: record.CallbackURL,
		params:      normalizeParams(params),
		messages: []openaiclient.Message{
			{Role: roleSystem, Content: params.Instructions},
		},
		isActive:    true,
		isListening: true,
		lastVoiced:  time.Now(),
		startedAt:   time.Now(),
		cancel:      cancel,
	}
	assistants[callID] = a
	assistantsMu.Unlock()

	call.Mutate(callID, func(r *call.Record) {
		r.AssistantActive = true
	})
	callback.Send(callID, a.callbackURL, "ai.started", map[string]interface{}{})

	if len(a.params.Greeting) > 0 {
		go func() {
			if err := a.speak(loopCtx, a.params.Greeting); err != nil {
				ymlogger.LogErrorf(callID, "Failed to play the greeting. Error: [%#v]", err)
			}
		}()
	}
	go a.monitorLoop(loopCtx, record.RecordingFilePath)
	return nil
}

// monitorLoop polls the growing recording file and drives turn taking
func (a *Assistant) monitorLoop(ctx context.Context, recordingPath string) {
	// Skip everything recorded before the assistant started
	if info, err := os.Stat(recordingPath); err == nil {
		a.readOffset = info.Size()
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !a.active() {
			return
		}
		chunk, err := a.readNewBytes(recordingPath)
		if err != nil {
			ymlogger.LogErrorf(a.callID, "Failed to read the recording. Error: [%#v]", err)
			continue
		}
		a.processChunk(ctx, chunk, time.Now())

		a.mu.Lock()
		silentFor := time.Since(a.lastVoiced)
		a.mu.Unlock()
		if silentFor > time.Duration(a.params.MaxSilenceSecs)*time.Second {
			ymlogger.LogInfof(a.callID, "No voice activity for [%v]. Ending the assistant", silentFor)
			Stop(ctx, a.callID, "silence_timeout")
			return
		}
	}
}

func (a *Assistant) readNewBytes(recordingPath string) ([]byte, error) {
	f, err := os.Open(recordingPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() <= a.readOffset {
		return nil, nil
	}
	if _, err := f.Seek(a.readOffset, io.SeekStart); err != nil {
		return nil, err
	}
	chunk := make([]byte, info.Size()-a.readOffset)
	n, err := io.ReadFull(f, chunk)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	a.readOffset += int64(n)
	return chunk[:n], nil
}

// processChunk runs voice activity detection over newly appended audio.
// First voiced chunk after silence starts the utterance and, if allowed,
// interrupts any AI playback. The first silent chunk after speech arms the
// silence timer; its expiry finalizes the utterance.
func (a *Assistant) processChunk(ctx context.Context, chunk []byte, now time.Time) {
	a.mu.Lock()
	if !a.isListening {
		a.mu.Unlock()
		return
	}
	voiced := len(chunk) > 0 && audio.HasVoice(chunk, audio.DefaultVADThreshold)
	if voiced {
		a.lastVoiced = now
		if !a.inSpeech {
			a.inSpeech = true
			a.speechStart = now
			a.speechBuf = nil
		}
		a.speechBuf = append(a.speechBuf, chunk...)
		a.silenceAfter = time.Time{}
		playbackID := a.playbackID
		interrupt := len(playbackID) > 0 && a.params.AllowInterruption
		a.mu.Unlock()
		if interrupt {
			ymlogger.LogDebugf(a.callID, "Caller interrupted the assistant")
			asterisk.StopPlayback(ctx, a.callID, playbackID)
		}
		return
	}
	if !a.inSpeech {
		a.mu.Unlock()
		return
	}
	if a.silenceAfter.IsZero() {
		a.silenceAfter = now.Add(time.Duration(a.params.SilenceMillis) * time.Millisecond)
		a.mu.Unlock()
		return
	}
	if now.Before(a.silenceAfter) {
		a.mu.Unlock()
		return
	}
	// Silence timer fired, finalize the utterance
	speechDuration := a.silenceAfter.Add(-time.Duration(a.params.SilenceMillis) * time.Millisecond).Sub(a.speechStart)
	buf := a.speechBuf
	a.inSpeech = false
	a.speechBuf = nil
	a.silenceAfter = time.Time{}
	if speechDuration < minSpeechDuration {
		a.mu.Unlock()
		ymlogger.LogDebugf(a.callID, "Discarding short utterance of [%v]", speechDuration)
		return
	}
	a.isListening = false
	a.isProcessing = true
	a.mu.Unlock()
	go a.runTurn(ctx, buf)
}

// runTurn transcribes one utterance and produces the assistant's reply
func (a *Assistant) runTurn(ctx context.Context, pcm []byte) {
	defer a.resumeListening()

	wavData, err := audio.PCMToWav(audio.StripWavHeader(pcm), audio.SampleRate)
	if err != nil {
		a.reportError(ctx, "Failed to assemble the utterance audio", err)
		return
	}
	transcript, err := azure.GetTextFromSpeech(ctx, a.callID, wavData, a.params.Language)
	if err != nil {
		a.reportError(ctx, "Transcription failed", err)
		return
	}
	if len(transcript) <= 0 {
		return
	}
	callback.Send(a.callID, a.callbackURL, "ai.transcribed", map[string]interface{}{
		"text": transcript,
	})

	a.mu.Lock()
	a.messages = appendTrimmed(a.messages, openaiclient.Message{Role: roleUser, Content: transcript})
	history := make([]openaiclient.Message, len(a.messages))
	copy(history, a.messages)
	a.mu.Unlock()

	reply, err := openaiclient.GetCompletion(ctx, a.callID, history)
	if err != nil {
		a.reportError(ctx, "Completion failed", err)
		return
	}
	if len(reply) <= 0 {
		return
	}
	a.mu.Lock()
	a.messages = appendTrimmed(a.messages, openaiclient.Message{Role: roleAssistant, Content: reply})
	a.turns++
	a.mu.Unlock()

	if err := a.speak(ctx, reply); err != nil {
		a.reportError(ctx, "Failed to speak the reply", err)
	}
}

// speak synthesizes text and plays it, blocking until playback ends
func (a *Assistant) speak(ctx context.Context, text string) error {
	record, err := call.Get(a.callID)
	if err != nil {
		return err
	}
	speechFile, err := azure.GetSpeechFile(ctx, a.callID, text, a.params.Voice)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.ttsFiles = append(a.ttsFiles, speechFile)
	a.mu.Unlock()

	playbackID := guuid.New().String()
	watcher := media.RegisterPlaybackWatcher(playbackID)
	a.mu.Lock()
	a.playbackID = playbackID
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.playbackID = ""
		a.mu.Unlock()
	}()

	if err := asterisk.PlaySound(ctx, a.callID, record.ChannelID, playbackID, speechFile); err != nil {
		media.UnregisterPlaybackWatcher(playbackID)
		return err
	}
	select {
	case <-watcher:
	case <-ctx.Done():
		media.UnregisterPlaybackWatcher(playbackID)
		return ctx.Err()
	}
	return nil
}

func (a *Assistant) resumeListening() {
	a.mu.Lock()
	if a.isActive {
		a.isProcessing = false
		a.isListening = true
		a.lastVoiced = time.Now()
	}
	a.mu.Unlock()
}

func (a *Assistant) reportError(ctx context.Context, message string, err error) {
	ymlogger.LogErrorf(a.callID, "%s. Error: [%#v]", message, err)
	state := "ai.error"
	if err == azure.ErrRateLimited {
		state = "speech.error"
	}
	callback.Send(a.callID, a.callbackURL, state, map[string]interface{}{
		"error": message,
	})
}

func (a *Assistant) active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isActive
}

// appendTrimmed appends a turn and drops the oldest non-system turns beyond
// the history limit
func appendTrimmed(messages []openaiclient.Message, message openaiclient.Message) []openaiclient.Message {
	messages = append(messages, message)
	if len(messages) <= historyLimit+1 {
		return messages
	}
	trimmed := make([]openaiclient.Message, 0, historyLimit+1)
	trimmed = append(trimmed, messages[0])
	trimmed = append(trimmed, messages[len(messages)-historyLimit:]...)
	return trimmed
}

// Summary is the final state of a finished conversation
type Summary struct {
	Reason       string                 `json:"reason"`
	Messages     []openaiclient.Message `json:"messages"`
	Turns        int                    `json:"turns"`
	DurationSecs int                    `json:"duration"`
}

// Stop tears the assistant down: stops playback, sends the final summary and
// deletes the synthesized audio. Safe to call more than once.
func Stop(ctx context.Context, callID string, reason string) (*Summary, error) {
	assistantsMu.Lock()
	a, ok := assistants[callID]
	if ok {
		delete(assistants, callID)
	}
	assistantsMu.Unlock()
	if !ok {
		return nil, ErrAssistantNotFound
	}

	a.mu.Lock()
	a.isActive = false
	a.isListening = false
	a.isProcessing = false
	playbackID := a.playbackID
	history := make([]openaiclient.Message, len(a.messages))
	copy(history, a.messages)
	turns := a.turns
	duration := time.Since(a.startedAt).Seconds()
	ttsFiles := a.ttsFiles
	a.mu.Unlock()

	a.cancel()
	if len(playbackID) > 0 {
		asterisk.StopPlayback(ctx, callID, playbackID)
	}
	call.Mutate(callID, func(r *call.Record) {
		r.AssistantActive = false
	})
	callback.Send(callID, a.callbackURL, "ai.ended", map[string]interface{}{
		"reason":   reason,
		"messages": history,
		"turns":    turns,
		"duration": int(duration),
	})
	for _, file := range ttsFiles {
		azure.DeleteSpeechFile(callID, file)
	}
	ymlogger.LogInfof(callID, "Assistant stopped. Reason: [%s] Turns: [%d]", reason, turns)
	return &Summary{
		Reason:       reason,
		Messages:     history,
		Turns:        turns,
		DurationSecs: int(duration),
	}, nil
}

// Running reports whether a call has an active assistant
func Running(callID string) bool {
	assistantsMu.Lock()
	_, ok := assistants[callID]
	assistantsMu.Unlock()
	return ok
}
