package media

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/callback"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/asterisk"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	guuid "github.com/google/uuid"
)

const (
	defaultGatherTimeout  = 5000
	defaultGatherMaxTries = 1
	collectDigitsTimeout  = 60 * time.Second
)

// GatherSpec is the normalized parameter set for one gather run
type GatherSpec struct {
	MaxDigits     int
	ValidDigits   string
	MaxTries      int
	TimeoutMillis int
}

func normalizeGatherSpec(action call.Action) GatherSpec {
	spec := GatherSpec{
		MaxDigits:     action.MaxDigits,
		ValidDigits:   action.ValidDigits,
		MaxTries:      action.MaxTries,
		TimeoutMillis: action.TimeoutMillis,
	}
	if spec.MaxTries <= 0 {
		spec.MaxTries = defaultGatherMaxTries
	}
	if spec.TimeoutMillis <= 0 {
		spec.TimeoutMillis = defaultGatherTimeout
	}
	return spec
}

// gatherEnv is everything one gather attempt needs from the outside world.
// Factored out so the attempt loop runs in tests without Asterisk.
type gatherEnv interface {
	// PlayPrompt starts the prompt and returns a channel that fires when the
	// prompt finishes playing plus a function to cut it short.
	PlayPrompt(ctx context.Context) (finished <-chan struct{}, stop func(), err error)
	Digits() <-chan string
	Emit(state string, data map[string]interface{})
}

// runGather drives the attempt loop. Digits arriving while the prompt still
// plays are collected but the timeout only starts once playback finishes.
// Reaching MaxDigits resolves immediately.
func runGather(ctx context.Context, spec GatherSpec, env gatherEnv) string {
	for attempt := 0; attempt < spec.MaxTries; attempt++ {
		finished, stop, err := env.PlayPrompt(ctx)
		if err != nil {
			env.Emit("action.error", map[string]interface{}{"error": err.Error()})
			return ""
		}
		collected := ""
		var timer *time.Timer
		var timeoutCh <-chan time.Time

	attemptLoop:
		for {
			select {
			case digit := <-env.Digits():
				if len(spec.ValidDigits) > 0 && !strings.Contains(spec.ValidDigits, digit) {
					env.Emit("dtmf.invalid", map[string]interface{}{"digit": digit})
					continue
				}
				collected += digit
				env.Emit("dtmf.entered", map[string]interface{}{"digit": digit, "digits": collected})
				if len(collected) >= spec.MaxDigits {
					stop()
					if timer != nil {
						timer.Stop()
					}
					return collected
				}
			case <-finished:
				finished = nil
				timer = time.NewTimer(time.Duration(spec.TimeoutMillis) * time.Millisecond)
				timeoutCh = timer.C
			case <-timeoutCh:
				if len(collected) > 0 {
					return collected
				}
				break attemptLoop
			case <-ctx.Done():
				stop()
				if timer != nil {
					timer.Stop()
				}
				return collected
			}
		}
	}
	env.Emit("maxretry.finished", map[string]interface{}{})
	return ""
}

// callGatherEnv wires the gather loop to a live call
type callGatherEnv struct {
	callID      string
	callbackURL string
	action      call.Action
	digitCh     chan string
	playbackID  string
}

func (env *callGatherEnv) PlayPrompt(ctx context.Context) (<-chan struct{}, func(), error) {
	record, err := call.Get(env.callID)
	if err != nil {
		return nil, nil, err
	}
	StopCurrentPlayback(ctx, env.callID)

	mediaFile := env.action.AudioURL
	isSound := false
	if env.action.Type == call.ActionGatherText {
		mediaFile, err = resolveSpeechFile(ctx, env.callID, env.action.Text, env.action.Voice)
		if err != nil {
			return nil, nil, err
		}
		isSound = true
	}

	playbackID := guuid.New().String()
	env.playbackID = playbackID
	watcher := RegisterPlaybackWatcher(playbackID)
	if isSound {
		err = asterisk.PlaySound(ctx, env.callID, record.ChannelID, playbackID, mediaFile)
	} else {
		err = asterisk.PlayMedia(ctx, env.callID, record.ChannelID, playbackID, mediaFile)
	}
	if err != nil {
		UnregisterPlaybackWatcher(playbackID)
		return nil, nil, err
	}
	stop := func() {
		UnregisterPlaybackWatcher(playbackID)
		asterisk.StopPlayback(ctx, env.callID, playbackID)
	}
	return watcher, stop, nil
}

func (env *callGatherEnv) Digits() <-chan string {
	return env.digitCh
}

func (env *callGatherEnv) Emit(state string, data map[string]interface{}) {
	callback.Send(env.callID, env.callbackURL, state, data)
}

// GatherDigits runs a prompt-then-listen gather on a live call. Exactly one
// DTMF listener is attached for the whole run.
func GatherDigits(ctx context.Context, callID string, action call.Action) (string, error) {
	record, err := call.Get(callID)
	if err != nil {
		return "", err
	}
	digitCh := make(chan string, 32)
	if err := attachDtmfListener(callID, digitCh); err != nil {
		return "", err
	}
	defer detachDtmfListener(callID, digitCh)

	env := &callGatherEnv{
		callID:      callID,
		callbackURL: record.CallbackURL,
		action:      action,
		digitCh:     digitCh,
	}
	digits := runGather(ctx, normalizeGatherSpec(action), env)

	call.Mutate(callID, func(r *call.Record) {
		r.DtmfDigits = digits
	})
	callback.Send(callID, record.CallbackURL, "dtmf.gathered", map[string]interface{}{
		"digits": digits,
	})
	ymlogger.LogInfof(callID, "Gather finished with [%d] digits", len(digits))
	return digits, nil
}

// CollectDigits listens for raw digits without playing a prompt
func CollectDigits(ctx context.Context, callID string, maxDigits int) (string, error) {
	record, err := call.Get(callID)
	if err != nil {
		return "", err
	}
	digitCh := make(chan string, 32)
	if err := attachDtmfListener(callID, digitCh); err != nil {
		return "", err
	}
	defer detachDtmfListener(callID, digitCh)

	collected := ""
	timer := time.NewTimer(collectDigitsTimeout)
	defer timer.Stop()
	for len(collected) < maxDigits {
		select {
		case digit := <-digitCh:
			collected += digit
			callback.Send(callID, record.CallbackURL, "dtmf.entered", map[string]interface{}{
				"digit":  digit,
				"digits": collected,
			})
		case <-timer.C:
			callback.Send(callID, record.CallbackURL, "dtmf.gathered", map[string]interface{}{
				"digits": collected,
			})
			return collected, nil
		case <-ctx.Done():
			return collected, ctx.Err()
		}
	}
	call.Mutate(callID, func(r *call.Record) {
		r.DtmfDigits = collected
	})
	callback.Send(callID, record.CallbackURL, "dtmf.gathered", map[string]interface{}{
		"digits": collected,
	})
	return collected, nil
}

func attachDtmfListener(callID string, digitCh chan string) error {
	return call.Mutate(callID, func(record *call.Record) {
		record.DTMFListener = digitCh
		record.DtmfDigits = ""
	})
}

func detachDtmfListener(callID string, digitCh chan string) {
	call.Mutate(callID, func(record *call.Record) {
		if record.DTMFListener == digitCh {
			record.DTMFListener = nil
		}
	})
}

// OnDtmfReceived routes a digit to the call's active listener and, during a
// transfer, also to the per-leg relay accumulators. Digit collection stays
// live while the call is bridged so digits from the forward leg reach it.
func OnDtmfReceived(ctx context.Context, callID string, channelID string, digit string) {
	record, err := call.Get(callID)
	if err != nil {
		return
	}
	if record.DTMFListener != nil {
		select {
		case record.DTMFListener <- digit:
		default:
			ymlogger.LogErrorf(callID, "DTMF listener is full. Dropping digit")
		}
	}
	if record.Status == call.StatusBridging || record.Status == call.StatusBridged {
		relayTransferDigit(ctx, callID, channelID, digit)
	}
}
