package contracts

import "testing"

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestCreateCallRequestValidate(t *testing.T) {
	req := CreateCallRequest{
		From:        strPtr("+14155550100"),
		To:          strPtr("+919876543210"),
		CallbackURL: strPtr("http://callback.test/hook"),
		APIKey:      strPtr("key-123"),
	}
	if err := req.Validate(); err != nil {
		t.Errorf("Expected a complete request to validate, got %v", err)
	}

	t.Run("missing to", func(t *testing.T) {
		bad := req
		bad.To = nil
		if err := bad.Validate(); err == nil {
			t.Error("Expected an error for a missing to")
		}
	})
	t.Run("empty apiKey", func(t *testing.T) {
		bad := req
		bad.APIKey = strPtr("")
		if err := bad.Validate(); err == nil {
			t.Error("Expected an error for an empty apiKey")
		}
	})
	t.Run("amd flag", func(t *testing.T) {
		if req.WantsAMD() {
			t.Error("AMD should default to off")
		}
		withAMD := req
		withAMD.AMD = boolPtr(true)
		if !withAMD.WantsAMD() {
			t.Error("Expected WantsAMD to reflect the flag")
		}
	})
}

func TestGatherTextRequestValidate(t *testing.T) {
	req := GatherTextRequest{
		CallID:    strPtr("call-1"),
		Text:      strPtr("Enter your PIN"),
		MaxDigits: intPtr(4),
	}
	if err := req.Validate(); err != nil {
		t.Errorf("Expected a complete request to validate, got %v", err)
	}

	t.Run("zero maxDigits", func(t *testing.T) {
		bad := req
		bad.MaxDigits = intPtr(0)
		if err := bad.Validate(); err == nil {
			t.Error("Expected an error for maxDigits 0")
		}
	})
	t.Run("missing text", func(t *testing.T) {
		bad := req
		bad.Text = nil
		if err := bad.Validate(); err == nil {
			t.Error("Expected an error for missing text")
		}
	})
}

func TestStartAIRequestValidate(t *testing.T) {
	req := StartAIRequest{
		CallID: strPtr("call-1"),
		Assistant: &AssistantConfig{
			Instructions: strPtr("You are a helpful receptionist"),
		},
	}
	if err := req.Validate(); err != nil {
		t.Errorf("Expected a complete request to validate, got %v", err)
	}

	t.Run("missing instructions", func(t *testing.T) {
		bad := req
		bad.Assistant = &AssistantConfig{}
		if err := bad.Validate(); err == nil {
			t.Error("Expected an error for missing instructions")
		}
	})
	t.Run("missing call_id", func(t *testing.T) {
		bad := req
		bad.CallID = nil
		if err := bad.Validate(); err == nil {
			t.Error("Expected an error for a missing call_id")
		}
	})
	t.Run("unsupported voice", func(t *testing.T) {
		bad := req
		bad.Voice = strPtr("en-US-RobotVoice")
		if err := bad.Validate(); err == nil {
			t.Error("Expected an error for an unsupported voice")
		}
	})
	t.Run("supported voice", func(t *testing.T) {
		good := req
		good.Voice = strPtr("en-IN-NeerjaNeural")
		if err := good.Validate(); err != nil {
			t.Errorf("Expected a supported voice to validate, got %v", err)
		}
	})
}
