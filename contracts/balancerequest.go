package contracts

import (
	"encoding/json"
	"errors"

	"github.com/labstack/echo"
)

type BalanceRequest struct {
	APIKey *string `json:"apikey"`
}

func (br *BalanceRequest) ExtractFromHTTP(c echo.Context) error {
	request := c.Request()
	err := json.NewDecoder(request.Body).Decode(br)
	if err != nil {
		return err
	}
	return nil
}

func (br *BalanceRequest) Validate() error {
	if br.APIKey == nil || len(*br.APIKey) <= 0 {
		return errors.New("apikey parameter is missing or empty")
	}
	return nil
}
