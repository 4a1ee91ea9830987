package contracts

import (
	"encoding/json"
	"errors"

	"github.com/labstack/echo"
)

type TransferRequest struct {
	CallID  *string `json:"call_id"`
	Forward *string `json:"forward"`
}

func (tr *TransferRequest) ExtractFromHTTP(c echo.Context) error {
	request := c.Request()
	err := json.NewDecoder(request.Body).Decode(tr)
	if err != nil {
		return err
	}
	return nil
}

func (tr *TransferRequest) Validate() error {
	if tr.CallID == nil || len(*tr.CallID) <= 0 {
		return errors.New("call_id parameter is missing or empty")
	}
	if tr.Forward == nil || len(*tr.Forward) <= 0 {
		return errors.New("forward parameter is missing or empty")
	}
	return nil
}

type DtmfRequest struct {
	CallID    *string `json:"call_id"`
	MaxDigits *int    `json:"maxDigits"`
}

func (dr *DtmfRequest) ExtractFromHTTP(c echo.Context) error {
	request := c.Request()
	err := json.NewDecoder(request.Body).Decode(dr)
	if err != nil {
		return err
	}
	return nil
}

func (dr *DtmfRequest) Validate() error {
	if dr.CallID == nil || len(*dr.CallID) <= 0 {
		return errors.New("call_id parameter is missing or empty")
	}
	if dr.MaxDigits == nil || *dr.MaxDigits <= 0 {
		return errors.New("maxDigits parameter is missing or invalid")
	}
	return nil
}
