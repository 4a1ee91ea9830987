package contracts

import (
	"encoding/json"
	"errors"

	"github.com/labstack/echo"
)

type CreateCallRequest struct {
	From        *string `json:"from"`
	To          *string `json:"to"`
	CallbackURL *string `json:"callbackUrl"`
	APIKey      *string `json:"apiKey"`
	AMD         *bool   `json:"amd,omitempty"`
}

func (ccr *CreateCallRequest) ExtractFromHTTP(c echo.Context) error {
	request := c.Request()
	err := json.NewDecoder(request.Body).Decode(ccr)
	if err != nil {
		return err
	}
	return nil
}

func (ccr *CreateCallRequest) Validate() error {
	if ccr.From == nil || len(*ccr.From) <= 0 {
		return errors.New("from parameter is missing or empty")
	}
	if ccr.To == nil || len(*ccr.To) <= 0 {
		return errors.New("to parameter is missing or empty")
	}
	if ccr.CallbackURL == nil || len(*ccr.CallbackURL) <= 0 {
		return errors.New("callbackUrl parameter is missing or empty")
	}
	if ccr.APIKey == nil || len(*ccr.APIKey) <= 0 {
		return errors.New("apiKey parameter is missing or empty")
	}
	return nil
}

// WantsAMD reports whether machine detection was requested
func (ccr *CreateCallRequest) WantsAMD() bool {
	return ccr.AMD != nil && *ccr.AMD
}
