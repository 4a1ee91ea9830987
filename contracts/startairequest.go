package contracts

import (
	"encoding/json"
	"errors"

	"github.com/labstack/echo"
)

type AssistantConfig struct {
	Instructions *string `json:"instructions"`
}

type StartAIRequest struct {
	CallID             *string          `json:"call_id"`
	Assistant          *AssistantConfig `json:"assistant"`
	Voice              *string          `json:"voice,omitempty"`
	Greeting           *string          `json:"greeting,omitempty"`
	AllowInterruption  *bool            `json:"allowInterruption,omitempty"`
	SilenceMillis      *int             `json:"silenceMillis,omitempty"`
	MaxSilenceSecs     *int             `json:"maxSilenceSecs,omitempty"`
	TranscribeLanguage *string          `json:"language,omitempty"`
}

func (sar *StartAIRequest) ExtractFromHTTP(c echo.Context) error {
	request := c.Request()
	err := json.NewDecoder(request.Body).Decode(sar)
	if err != nil {
		return err
	}
	return nil
}

var allowedVoices = map[string]bool{
	"en-US-JennyNeural":   true,
	"en-US-GuyNeural":     true,
	"en-US-AriaNeural":    true,
	"en-GB-SoniaNeural":   true,
	"en-GB-RyanNeural":    true,
	"en-AU-NatashaNeural": true,
	"en-IN-NeerjaNeural":  true,
	"en-IN-PrabhatNeural": true,
	"hi-IN-SwaraNeural":   true,
	"hi-IN-MadhurNeural":  true,
}

func (sar *StartAIRequest) Validate() error {
	if sar.CallID == nil || len(*sar.CallID) <= 0 {
		return errors.New("call_id parameter is missing or empty")
	}
	if sar.Assistant == nil || sar.Assistant.Instructions == nil || len(*sar.Assistant.Instructions) <= 0 {
		return errors.New("assistant.instructions parameter is missing or empty")
	}
	if sar.Voice != nil && len(*sar.Voice) > 0 && !allowedVoices[*sar.Voice] {
		return errors.New("voice is not supported")
	}
	return nil
}
