package main

import (
	"bitbucket.org/yellowmessenger/callcontrol-ari/requesthandler"

	"github.com/labstack/echo"
)

// AddRoutes defines the routes and the handlers
func AddRoutes(e *echo.Echo) {
	e.Any("/v2/create-call", requesthandler.CreateCallHandler{}.Any)
	e.Any("/v2/enqueue-call", requesthandler.EnqueueCallHandler{}.Any)
	e.Any("/v2/play-text", requesthandler.PlayTextHandler{}.Any)
	e.Any("/v2/play-audio", requesthandler.PlayAudioHandler{}.Any)
	e.Any("/v2/gather-text", requesthandler.GatherTextHandler{}.Any)
	e.Any("/v2/gather-audio", requesthandler.GatherAudioHandler{}.Any)
	e.Any("/v2/transfer", requesthandler.TransferHandler{}.Any)
	e.Any("/v2/dtmf", requesthandler.DtmfHandler{}.Any)
	e.Any("/v2/hangup", requesthandler.HangupHandler{}.Any)
	e.Any("/v2/hold", requesthandler.HoldHandler{}.Any)
	e.Any("/v2/unhold", requesthandler.UnholdHandler{}.Any)
	e.Any("/v2/start-ai", requesthandler.StartAIHandler{}.Any)
	e.Any("/v2/stop-ai", requesthandler.StopAIHandler{}.Any)
	e.Any("/v2/balance", requesthandler.BalanceHandler{}.Any)
	e.Any("/v2/health", requesthandler.HealthHandler{}.Any)
	e.Any("/recording/:call_id", requesthandler.RecordingHandler{}.Any)
}
