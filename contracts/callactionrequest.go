package contracts

import (
	"encoding/json"
	"errors"

	"github.com/labstack/echo"
)

// CallActionRequest covers the commands that only need a call_id:
// hangup, hold, unhold and stop-ai.
type CallActionRequest struct {
	CallID *string `json:"call_id"`
}

func (car *CallActionRequest) ExtractFromHTTP(c echo.Context) error {
	request := c.Request()
	err := json.NewDecoder(request.Body).Decode(car)
	if err != nil {
		return err
	}
	return nil
}

func (car *CallActionRequest) Validate() error {
	if car.CallID == nil || len(*car.CallID) <= 0 {
		return errors.New("call_id parameter is missing or empty")
	}
	return nil
}
