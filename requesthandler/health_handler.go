package requesthandler

import (
	"net/http"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/contracts"
	"bitbucket.org/yellowmessenger/callcontrol-ari/globals"
	"bitbucket.org/yellowmessenger/callcontrol-ari/models/mysql"
	"github.com/labstack/echo"
)

var startedAt = time.Now()

type HealthHandler struct{}

func (handler HealthHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodGet:
		return handler.Get(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (HealthHandler) Get(c echo.Context) error {
	return Response(c, &contracts.HealthResponse{
		Success:     true,
		ActiveCalls: int64(globals.GetNoOfCalls()),
		Database:    mysql.Ping() == nil,
		Uptime:      time.Since(startedAt).Round(time.Second).String(),
	}, http.StatusOK)
}
