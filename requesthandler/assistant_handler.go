package requesthandler

import (
	"context"
	"net/http"

	"bitbucket.org/yellowmessenger/callcontrol-ari/assistant"
	"bitbucket.org/yellowmessenger/callcontrol-ari/contracts"
	"github.com/labstack/echo"
)

type StartAIHandler struct{}

func (handler StartAIHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Start(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (StartAIHandler) Start(c echo.Context) error {
	ctx := context.Background()
	saReq := new(contracts.StartAIRequest)
	if err := saReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := saReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	params := assistant.Params{
		Instructions: *saReq.Assistant.Instructions,
	}
	if saReq.Voice != nil {
		params.Voice = *saReq.Voice
	}
	if saReq.Greeting != nil {
		params.Greeting = *saReq.Greeting
	}
	if saReq.AllowInterruption != nil {
		params.AllowInterruption = *saReq.AllowInterruption
	}
	if saReq.SilenceMillis != nil {
		params.SilenceMillis = *saReq.SilenceMillis
	}
	if saReq.MaxSilenceSecs != nil {
		params.MaxSilenceSecs = *saReq.MaxSilenceSecs
	}
	if saReq.TranscribeLanguage != nil {
		params.Language = *saReq.TranscribeLanguage
	}

	if err := assistant.Start(ctx, *saReq.CallID, params); err != nil {
		switch err {
		case assistant.ErrAssistantExists:
			return ErrorResponse(c, err, http.StatusConflict)
		case assistant.ErrNoRecording, assistant.ErrCallNotLive:
			return ErrorResponse(c, err, http.StatusPreconditionFailed)
		}
		return ErrorResponse(c, err, http.StatusNotFound)
	}
	return SuccessResponse(c, "Assistant started", http.StatusOK)
}

type StopAIHandler struct{}

func (handler StopAIHandler) Any(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodPost:
		return handler.Stop(c)
	}
	return RawResponse(c, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (StopAIHandler) Stop(c echo.Context) error {
	ctx := context.Background()
	stReq := new(contracts.CallActionRequest)
	if err := stReq.ExtractFromHTTP(c); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}
	if err := stReq.Validate(); err != nil {
		return ErrorResponse(c, err, http.StatusBadRequest)
	}

	summary, err := assistant.Stop(ctx, *stReq.CallID, "user_requested")
	if err != nil {
		return ErrorResponse(c, err, http.StatusNotFound)
	}
	return Response(c, map[string]interface{}{
		"success":  true,
		"messages": summary.Messages,
		"turns":    summary.Turns,
		"duration": summary.DurationSecs,
	}, http.StatusOK)
}
