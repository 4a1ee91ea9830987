package requesthandler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"github.com/labstack/echo"
)

type RecordingHandler struct{}

func (handler RecordingHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodGet:
		return handler.Get(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// Get streams the local recording for a call id. Finished recordings live in
// blob storage; this only serves calls still on disk.
func (RecordingHandler) Get(c echo.Context) error {
	callID := c.Param("call_id")
	if len(callID) <= 0 {
		return ErrorResponse(c, errors.New("call_id parameter is missing or empty"), http.StatusBadRequest)
	}
	// The recording name is derived from the call id, so the path never
	// leaves the recording directory
	filePath := filepath.Join(configmanager.ConfStore.RecordingDirectory, "recording-"+filepath.Base(callID)+".wav")
	if _, err := os.Stat(filePath); err != nil {
		return ErrorResponse(c, errors.New("Recording not found"), http.StatusNotFound)
	}
	return c.File(filePath)
}
