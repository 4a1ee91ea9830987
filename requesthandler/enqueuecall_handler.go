package requesthandler

import (
	"context"
	"net/http"

	"bitbucket.org/yellowmessenger/callcontrol-ari/contracts"
	"bitbucket.org/yellowmessenger/callcontrol-ari/core/enqueuecall"
	"github.com/labstack/echo"
)

type EnqueueCallHandler struct{}

func (handler EnqueueCallHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Create(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (EnqueueCallHandler) Create(c echo.Context) error {
	ctx := context.Background()
	ecReq := new(contracts.EnqueueCallRequest)
	if err := ecReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := ecReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	response, httpCode, err := enqueuecall.Enqueue(ctx, *ecReq)
	if err != nil {
		return ErrorResponse(c, err, httpCode)
	}
	return Response(c, response, httpCode)
}
