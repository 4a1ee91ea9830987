package requesthandler

import (
	"context"
	"net/http"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/contracts"
	"bitbucket.org/yellowmessenger/callcontrol-ari/media"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/asterisk"
	"github.com/labstack/echo"
)

type HangupHandler struct{}

func (handler HangupHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Hangup(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (HangupHandler) Hangup(c echo.Context) error {
	ctx := context.Background()
	haReq := new(contracts.CallActionRequest)
	if err := haReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := haReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	record, err := call.Get(*haReq.CallID)
	if err != nil {
		return ErrorResponse(c, err, http.StatusNotFound)
	}
	if err := asterisk.HangupChannel(ctx, *haReq.CallID, record.ChannelID, "normal"); err != nil {
		return ErrorResponse(c, err, http.StatusInternalServerError)
	}
	return SuccessResponse(c, "Hangup requested", http.StatusOK)
}

type HoldHandler struct{}

func (handler HoldHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Hold(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (HoldHandler) Hold(c echo.Context) error {
	ctx := context.Background()
	hReq := new(contracts.CallActionRequest)
	if err := hReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := hReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	if err := media.Hold(ctx, *hReq.CallID); err != nil {
		return ErrorResponse(c, err, http.StatusNotFound)
	}
	return SuccessResponse(c, "Call placed on hold", http.StatusOK)
}

type UnholdHandler struct{}

func (handler UnholdHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Unhold(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (UnholdHandler) Unhold(c echo.Context) error {
	ctx := context.Background()
	uReq := new(contracts.CallActionRequest)
	if err := uReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := uReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	if err := media.Unhold(ctx, *uReq.CallID); err != nil {
		return ErrorResponse(c, err, http.StatusNotFound)
	}
	return SuccessResponse(c, "Call resumed", http.StatusOK)
}
