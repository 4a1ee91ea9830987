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

type PlayTextHandler struct{}

func (handler PlayTextHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Play(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (PlayTextHandler) Play(c echo.Context) error {
	ctx := context.Background()
	ptReq := new(contracts.PlayTextRequest)
	if err := ptReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := ptReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	voice := azure.DefaultVoice
	if ptReq.Voice != nil && len(*ptReq.Voice) > 0 {
		voice = *ptReq.Voice
	}
	gated, err := media.EnqueueAction(ctx, *ptReq.CallID, call.Action{
		Type:  call.ActionPlayText,
		Text:  *ptReq.Text,
		Voice: voice,
	})
	if err != nil {
		return ErrorResponse(c, err, http.StatusNotFound)
	}
	if gated {
		return SuccessResponse(c, contracts.QueuedActionMessage, http.StatusOK)
	}
	return SuccessResponse(c, "Playback queued", http.StatusOK)
}

type PlayAudioHandler struct{}

func (handler PlayAudioHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Play(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (PlayAudioHandler) Play(c echo.Context) error {
	ctx := context.Background()
	paReq := new(contracts.PlayAudioRequest)
	if err := paReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := paReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	gated, err := media.EnqueueAction(ctx, *paReq.CallID, call.Action{
		Type:     call.ActionPlayAudio,
		AudioURL: *paReq.AudioURL,
	})
	if err != nil {
		return ErrorResponse(c, err, http.StatusNotFound)
	}
	if gated {
		return SuccessResponse(c, contracts.QueuedActionMessage, http.StatusOK)
	}
	return SuccessResponse(c, "Playback queued", http.StatusOK)
}
