package requesthandler

import (
	"errors"
	"net/http"

	"bitbucket.org/yellowmessenger/callcontrol-ari/contracts"
	"bitbucket.org/yellowmessenger/callcontrol-ari/models/mysql"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	"github.com/labstack/echo"
)

type BalanceHandler struct{}

func (handler BalanceHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Get(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (BalanceHandler) Get(c echo.Context) error {
	bReq := new(contracts.BalanceRequest)
	if err := bReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := bReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	user, err := mysql.GetUserByAPIKey(*bReq.APIKey)
	if err != nil {
		ymlogger.LogErrorf("Balance", "Failed to fetch the user for the API key. Error: [%#v]", err)
		return ErrorResponse(c, errors.New("Invalid API key"), http.StatusUnauthorized)
	}
	return Response(c, &contracts.BalanceResponse{
		Success:     true,
		Balance:     user.Balance,
		Currency:    "USD",
		TotalCalls:  user.TotalCalls,
		FailedCalls: user.FailedCalls,
	}, http.StatusOK)
}
