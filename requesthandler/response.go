package requesthandler

import (
	"bitbucket.org/yellowmessenger/callcontrol-ari/contracts"
	"github.com/labstack/echo"
)

func Response(c echo.Context, response interface{}, httpCode int) error {
	return c.JSON(httpCode, response)
}

func RawResponse(c echo.Context, response interface{}, httpCode int) error {
	return c.JSON(httpCode, response)
}

// ErrorResponse wraps an error into the common failure envelope
func ErrorResponse(c echo.Context, err error, httpCode int) error {
	response := contracts.Response{
		Success: false,
	}
	if err != nil {
		response.Error = err.Error()
	}
	return c.JSON(httpCode, response)
}

// SuccessResponse replies with the common success envelope
func SuccessResponse(c echo.Context, message string, httpCode int) error {
	return c.JSON(httpCode, contracts.Response{
		Success: true,
		Message: message,
	})
}
