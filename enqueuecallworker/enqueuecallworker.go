package enqueuecallworker

import (
	"context"
	"encoding/json"
	"net/http"

	"bitbucket.org/yellowmessenger/callcontrol-ari/contracts"
	"bitbucket.org/yellowmessenger/callcontrol-ari/core/createcall"
	"bitbucket.org/yellowmessenger/callcontrol-ari/core/enqueuecall"
	"bitbucket.org/yellowmessenger/callcontrol-ari/queuemanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
)

// tempFailureDelayMillis defers a retry when the originate path hits a
// transient failure
const tempFailureDelayMillis = 30000

// EnqueueCallWorker originates queued calls through the same path as a
// direct create
type EnqueueCallWorker struct{}

func (EnqueueCallWorker) Process(jobMsg []byte) queuemanager.QueueJobResult {
	var queuedCall enqueuecall.QueuedCall
	if err := json.Unmarshal(jobMsg, &queuedCall); err != nil {
		ymlogger.LogErrorf("EnqueueCallWorker", "Error while unmarshalling the JSON. JobMsg: [%s] Error: [%#v]", string(jobMsg), err)
		return queuemanager.QueueJobResult{Status: queuemanager.Failure}
	}

	req := contracts.CreateCallRequest{
		From:        &queuedCall.From,
		To:          &queuedCall.To,
		CallbackURL: &queuedCall.CallbackURL,
		APIKey:      &queuedCall.APIKey,
		AMD:         &queuedCall.AMD,
	}
	if err := req.Validate(); err != nil {
		ymlogger.LogErrorf(queuedCall.QueueID, "Queued call failed validation. Error: [%#v]", err)
		return queuemanager.QueueJobResult{Status: queuemanager.Failure}
	}

	response, httpCode, err := createcall.Create(context.Background(), req)
	if err != nil {
		ymlogger.LogErrorf(queuedCall.QueueID, "Failed to originate the queued call. HTTPCode: [%d] Error: [%#v]", httpCode, err)
		if httpCode >= http.StatusInternalServerError {
			return queuemanager.QueueJobResult{
				Status: queuemanager.TempFailure,
				Delay:  tempFailureDelayMillis,
			}
		}
		return queuemanager.QueueJobResult{Status: queuemanager.Failure}
	}
	ymlogger.LogInfof(queuedCall.QueueID, "Originated the queued call. CallID: [%s]", response.CallID)
	return queuemanager.QueueJobResult{Status: queuemanager.Success}
}
