package requesthandler

import (
	"context"
	"net/http"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/contracts"
	"bitbucket.org/yellowmessenger/callcontrol-ari/media"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/azure"
	"github.com/labstack/echo"
)

type GatherTextHandler struct{}

func (handler GatherTextHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Gather(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (GatherTextHandler) Gather(c echo.Context) error {
	ctx := context.Background()
	gtReq := new(contracts.GatherTextRequest)
	if err := gtReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := gtReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	voice := azure.DefaultVoice
	if gtReq.Voice != nil && len(*gtReq.Voice) > 0 {
		voice = *gtReq.Voice
	}
	action := call.Action{
		Type:      call.ActionGatherText,
		Text:      *gtReq.Text,
		Voice:     voice,
		MaxDigits: *gtReq.MaxDigits,
	}
	if gtReq.ValidDigits != nil {
		action.ValidDigits = *gtReq.ValidDigits
	}
	if gtReq.MaxTries != nil {
		action.MaxTries = *gtReq.MaxTries
	}
	if gtReq.TimeoutMillis != nil {
		action.TimeoutMillis = *gtReq.TimeoutMillis
	}

	gated, err := media.EnqueueAction(ctx, *gtReq.CallID, action)
	if err != nil {
		return ErrorResponse(c, err, http.StatusNotFound)
	}
	if gated {
		return SuccessResponse(c, contracts.QueuedActionMessage, http.StatusOK)
	}
	return SuccessResponse(c, "Gather queued", http.StatusOK)
}

type GatherAudioHandler struct{}

func (handler GatherAudioHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Gather(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (GatherAudioHandler) Gather(c echo.Context) error {
	ctx := context.Background()
	gaReq := new(contracts.GatherAudioRequest)
	if err := gaReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := gaReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	action := call.Action{
		Type:      call.ActionGatherAudio,
		AudioURL:  *gaReq.AudioURL,
		MaxDigits: *gaReq.MaxDigits,
	}
	if gaReq.ValidDigits != nil {
		action.ValidDigits = *gaReq.ValidDigits
	}
	if gaReq.MaxTries != nil {
		action.MaxTries = *gaReq.MaxTries
	}
	if gaReq.TimeoutMillis != nil {
		action.TimeoutMillis = *gaReq.TimeoutMillis
	}

	gated, err := media.EnqueueAction(ctx, *gaReq.CallID, action)
	if err != nil {
		return ErrorResponse(c, err, http.StatusNotFound)
	}
	if gated {
		return SuccessResponse(c, contracts.QueuedActionMessage, http.StatusOK)
	}
	return SuccessResponse(c, "Gather queued", http.StatusOK)
}
