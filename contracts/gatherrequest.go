package contracts

import (
	"encoding/json"
	"errors"

	"github.com/labstack/echo"
)

type GatherTextRequest struct {
	CallID        *string `json:"call_id"`
	Text          *string `json:"text"`
	Voice         *string `json:"voice,omitempty"`
	MaxDigits     *int    `json:"maxDigits"`
	ValidDigits   *string `json:"validDigits,omitempty"`
	MaxTries      *int    `json:"maxTries,omitempty"`
	TimeoutMillis *int    `json:"timeoutMillis,omitempty"`
}

func (gtr *GatherTextRequest) ExtractFromHTTP(c echo.Context) error {
	request := c.Request()
	err := json.NewDecoder(request.Body).Decode(gtr)
	if err != nil {
		return err
	}
	return nil
}

func (gtr *GatherTextRequest) Validate() error {
	if gtr.CallID == nil || len(*gtr.CallID) <= 0 {
		return errors.New("call_id parameter is missing or empty")
	}
	if gtr.Text == nil || len(*gtr.Text) <= 0 {
		return errors.New("text parameter is missing or empty")
	}
	if gtr.MaxDigits == nil || *gtr.MaxDigits <= 0 {
		return errors.New("maxDigits parameter is missing or invalid")
	}
	return nil
}

type GatherAudioRequest struct {
	CallID        *string `json:"call_id"`
	AudioURL      *string `json:"audioUrl"`
	MaxDigits     *int    `json:"maxDigits"`
	ValidDigits   *string `json:"validDigits,omitempty"`
	MaxTries      *int    `json:"maxTries,omitempty"`
	TimeoutMillis *int    `json:"timeoutMillis,omitempty"`
}

func (gar *GatherAudioRequest) ExtractFromHTTP(c echo.Context) error {
	request := c.Request()
	err := json.NewDecoder(request.Body).Decode(gar)
	if err != nil {
		return err
	}
	return nil
}

func (gar *GatherAudioRequest) Validate() error {
	if gar.CallID == nil || len(*gar.CallID) <= 0 {
		return errors.New("call_id parameter is missing or empty")
	}
	if gar.AudioURL == nil || len(*gar.AudioURL) <= 0 {
		return errors.New("audioUrl parameter is missing or empty")
	}
	if gar.MaxDigits == nil || *gar.MaxDigits <= 0 {
		return errors.New("maxDigits parameter is missing or invalid")
	}
	return nil
}
