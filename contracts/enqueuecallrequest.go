package contracts

import (
	"encoding/json"
	"errors"

	"github.com/labstack/echo"
)

type EnqueueCallRequest struct {
	From        *string `json:"from"`
	To          *string `json:"to"`
	CallbackURL *string `json:"callbackUrl"`
	APIKey      *string `json:"apiKey"`
	AMD         *bool   `json:"amd,omitempty"`
	Priority    *uint8  `json:"priority,omitempty"`
	DelaySecs   *int64  `json:"delay_secs,omitempty"`
}

func (ecr *EnqueueCallRequest) ExtractFromHTTP(c echo.Context) error {
	request := c.Request()
	err := json.NewDecoder(request.Body).Decode(ecr)
	if err != nil {
		return err
	}
	return nil
}

func (ecr *EnqueueCallRequest) Validate() error {
	if ecr.From == nil || len(*ecr.From) <= 0 {
		return errors.New("from parameter is missing or empty")
	}
	if ecr.To == nil || len(*ecr.To) <= 0 {
		return errors.New("to parameter is missing or empty")
	}
	if ecr.CallbackURL == nil || len(*ecr.CallbackURL) <= 0 {
		return errors.New("callbackUrl parameter is missing or empty")
	}
	if ecr.APIKey == nil || len(*ecr.APIKey) <= 0 {
		return errors.New("apiKey parameter is missing or empty")
	}
	return nil
}

// WantsAMD reports whether machine detection was requested
func (ecr *EnqueueCallRequest) WantsAMD() bool {
	return ecr.AMD != nil && *ecr.AMD
}
