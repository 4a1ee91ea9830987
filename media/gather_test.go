package media

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
)

type fakeGatherEnv struct {
	digitCh  chan string
	prompts  int
	finishes []chan struct{}
	stops    int
	emitted  []string
}

func (env *fakeGatherEnv) PlayPrompt(ctx context.Context) (<-chan struct{}, func(), error) {
	env.prompts++
	finished := make(chan struct{})
	env.finishes = append(env.finishes, finished)
	return finished, func() { env.stops++ }, nil
}

func (env *fakeGatherEnv) Digits() <-chan string {
	return env.digitCh
}

func (env *fakeGatherEnv) Emit(state string, data map[string]interface{}) {
	env.emitted = append(env.emitted, state)
}

func (env *fakeGatherEnv) finishPrompt(i int) {
	close(env.finishes[i])
}

func (env *fakeGatherEnv) hasEmitted(state string) bool {
	for _, s := range env.emitted {
		if s == state {
			return true
		}
	}
	return false
}

func TestRunGatherMaxDigitsDuringPrompt(t *testing.T) {
	env := &fakeGatherEnv{digitCh: make(chan string, 8)}
	for _, d := range []string{"1", "2", "3", "4"} {
		env.digitCh <- d
	}
	spec := GatherSpec{MaxDigits: 4, MaxTries: 1, TimeoutMillis: 5000}

	digits := runGather(context.Background(), spec, env)
	if digits != "1234" {
		t.Errorf("Expected digits 1234, got %q", digits)
	}
	if env.stops != 1 {
		t.Errorf("Expected the prompt to be stopped once, got %d", env.stops)
	}
	if env.hasEmitted("maxretry.finished") {
		t.Error("maxretry.finished should not fire when digits resolve the gather")
	}
}

func TestRunGatherInvalidDigitsRejected(t *testing.T) {
	env := &fakeGatherEnv{digitCh: make(chan string, 8)}
	for _, d := range []string{"9", "1", "8", "2"} {
		env.digitCh <- d
	}
	spec := GatherSpec{MaxDigits: 2, ValidDigits: "12", MaxTries: 1, TimeoutMillis: 5000}

	digits := runGather(context.Background(), spec, env)
	if digits != "12" {
		t.Errorf("Expected digits 12, got %q", digits)
	}
	if !env.hasEmitted("dtmf.invalid") {
		t.Error("Expected dtmf.invalid for the rejected digits")
	}
}

func TestRunGatherRetriesExhausted(t *testing.T) {
	env := &fakeGatherEnv{digitCh: make(chan string)}
	spec := GatherSpec{MaxDigits: 4, MaxTries: 3, TimeoutMillis: 10}
	go func() {
		for i := 0; i < 3; i++ {
			for len(env.finishes) <= i {
				time.Sleep(time.Millisecond)
			}
			env.finishPrompt(i)
		}
	}()

	digits := runGather(context.Background(), spec, env)
	if digits != "" {
		t.Errorf("Expected no digits, got %q", digits)
	}
	if env.prompts != 3 {
		t.Errorf("Expected 3 prompt attempts, got %d", env.prompts)
	}
	if !env.hasEmitted("maxretry.finished") {
		t.Error("Expected maxretry.finished after all attempts timed out")
	}
}

func TestRunGatherPartialDigitsOnTimeout(t *testing.T) {
	env := &fakeGatherEnv{digitCh: make(chan string, 8)}
	env.digitCh <- "7"
	env.digitCh <- "8"
	spec := GatherSpec{MaxDigits: 6, MaxTries: 2, TimeoutMillis: 10}
	go func() {
		for len(env.finishes) == 0 {
			time.Sleep(time.Millisecond)
		}
		env.finishPrompt(0)
	}()

	digits := runGather(context.Background(), spec, env)
	if digits != "78" {
		t.Errorf("Expected the partial digits 78, got %q", digits)
	}
	if env.prompts != 1 {
		t.Errorf("Partial digits should resolve without a retry, got %d prompts", env.prompts)
	}
}

func TestOnDtmfReceivedWhileBridged(t *testing.T) {
	callID := "bridged-dtmf-call"
	call.Create(callID, &call.Record{
		ChannelID:         "leg-a",
		TransferChannelID: "leg-b",
		Status:            call.StatusBridged,
		CallAnswered:      true,
	})
	defer call.Delete(callID)

	digitCh := make(chan string, 8)
	if err := attachDtmfListener(callID, digitCh); err != nil {
		t.Fatalf("Failed to attach the listener: %v", err)
	}
	defer detachDtmfListener(callID, digitCh)

	OnDtmfReceived(context.Background(), callID, "leg-b", "5")

	select {
	case digit := <-digitCh:
		if digit != "5" {
			t.Errorf("Expected digit 5, got %q", digit)
		}
	default:
		t.Fatal("Digit from the forward leg never reached the attached listener")
	}

	record, err := call.Get(callID)
	if err != nil {
		t.Fatalf("Failed to read the record: %v", err)
	}
	if record.LegBDigits != "5" {
		t.Errorf("Expected the transfer relay to accumulate the digit, got %q", record.LegBDigits)
	}
}

func TestNormalizeGatherSpec(t *testing.T) {
	spec := normalizeGatherSpec(call.Action{MaxDigits: 4})
	if spec.MaxTries != defaultGatherMaxTries {
		t.Errorf("Expected default MaxTries %d, got %d", defaultGatherMaxTries, spec.MaxTries)
	}
	if spec.TimeoutMillis != defaultGatherTimeout {
		t.Errorf("Expected default TimeoutMillis %d, got %d", defaultGatherTimeout, spec.TimeoutMillis)
	}

	spec = normalizeGatherSpec(call.Action{MaxDigits: 4, MaxTries: 3, TimeoutMillis: 2500})
	if spec.MaxTries != 3 || spec.TimeoutMillis != 2500 {
		t.Errorf("Explicit values should be preserved, got %+v", spec)
	}
}
