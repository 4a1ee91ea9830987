package contracts

import (
	"encoding/json"
	"errors"

	"github.com/labstack/echo"
)

type PlayTextRequest struct {
	CallID *string `json:"call_id"`
	Text   *string `json:"text"`
	Voice  *string `json:"voice,omitempty"`
}

func (ptr *PlayTextRequest) ExtractFromHTTP(c echo.Context) error {
	request := c.Request()
	err := json.NewDecoder(request.Body).Decode(ptr)
	if err != nil {
		return err
	}
	return nil
}

func (ptr *PlayTextRequest) Validate() error {
	if ptr.CallID == nil || len(*ptr.CallID) <= 0 {
		return errors.New("call_id parameter is missing or empty")
	}
	if ptr.Text == nil || len(*ptr.Text) <= 0 {
		return errors.New("text parameter is missing or empty")
	}
	return nil
}

type PlayAudioRequest struct {
	CallID   *string `json:"call_id"`
	AudioURL *string `json:"audioUrl"`
}

func (par *PlayAudioRequest) ExtractFromHTTP(c echo.Context) error {
	request := c.Request()
	err := json.NewDecoder(request.Body).Decode(par)
	if err != nil {
		return err
	}
	return nil
}

func (par *PlayAudioRequest) Validate() error {
	if par.CallID == nil || len(*par.CallID) <= 0 {
		return errors.New("call_id parameter is missing or empty")
	}
	if par.AudioURL == nil || len(*par.AudioURL) <= 0 {
		return errors.New("audioUrl parameter is missing or empty")
	}
	return nil
}
