package requesthandler

import (
	"context"
	"net/http"

	"bitbucket.org/yellowmessenger/callcontrol-ari/contracts"
	"bitbucket.org/yellowmessenger/callcontrol-ari/media"
	"github.com/labstack/echo"
)

type TransferHandler struct{}

func (handler TransferHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Transfer(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (TransferHandler) Transfer(c echo.Context) error {
	ctx := context.Background()
	tReq := new(contracts.TransferRequest)
	if err := tReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := tReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	if err := media.Transfer(ctx, *tReq.CallID, *tReq.Forward); err != nil {
		return ErrorResponse(c, err, http.StatusNotFound)
	}
	return SuccessResponse(c, "Transfer initiated", http.StatusOK)
}

type DtmfHandler struct{}

func (handler DtmfHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Collect(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// Collect waits for the digits before replying, unlike the gather commands
// which resolve through a callback.
func (DtmfHandler) Collect(c echo.Context) error {
	ctx := context.Background()
	dReq := new(contracts.DtmfRequest)
	if err := dReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := dReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	digits, err := media.CollectDigits(ctx, *dReq.CallID, *dReq.MaxDigits)
	if err != nil {
		return ErrorResponse(c, err, http.StatusNotFound)
	}
	return Response(c, map[string]interface{}{
		"success": true,
		"digits":  digits,
	}, http.StatusOK)
}
