package requesthandler

import (
	"context"
	"errors"
	"net/http"

	"bitbucket.org/yellowmessenger/callcontrol-ari/contracts"
	"bitbucket.org/yellowmessenger/callcontrol-ari/core/createcall"
	"github.com/labstack/echo"
	"golang.org/x/time/rate"
)

const CreateCallAPIRequestsPerSecond = 5
const CreateCallAPIRequestsBurst = 300

var createCallLimiter = rate.NewLimiter(CreateCallAPIRequestsPerSecond, CreateCallAPIRequestsBurst)

type CreateCallHandler struct{}

func (handler CreateCallHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Create(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (CreateCallHandler) Create(c echo.Context) error {
	ctx := context.Background()
	if createCallLimiter.Allow() == false {
		return ErrorResponse(c, errors.New("Making more than allowed requests"), http.StatusTooManyRequests)
	}

	ccReq := new(contracts.CreateCallRequest)
	if err := ccReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := ccReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	response, httpCode, err := createcall.Create(ctx, *ccReq)
	if err != nil {
		return ErrorResponse(c, err, httpCode)
	}
	return Response(c, response, httpCode)
}
