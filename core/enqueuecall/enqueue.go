package enqueuecall

import (
	"context"
	"encoding/json"
	"net/http"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/contracts"
	"bitbucket.org/yellowmessenger/callcontrol-ari/newrelic"
	"bitbucket.org/yellowmessenger/callcontrol-ari/queuemanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	guuid "github.com/google/uuid"
)

// QueuedCall is the payload published for a deferred originate
type QueuedCall struct {
	QueueID     string `json:"queue_id"`
	From        string `json:"from"`
	To          string `json:"to"`
	CallbackURL string `json:"callbackUrl"`
	APIKey      string `json:"apiKey"`
	AMD         bool   `json:"amd"`
}

// Enqueue publishes the call request to the originate queue. The worker picks
// it up and runs the same admission and billing checks as a direct create.
func Enqueue(
	ctx context.Context,
	req contracts.EnqueueCallRequest,
) (
	*contracts.EnqueueCallResponse,
	int,
	error,
) {
	queueID := guuid.New().String()
	payload := QueuedCall{
		QueueID:     queueID,
		From:        *req.From,
		To:          *req.To,
		CallbackURL: *req.CallbackURL,
		APIKey:      *req.APIKey,
		AMD:         req.WantsAMD(),
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		ymlogger.LogErrorf(queueID, "Failed to marshal the enqueue payload. Error: [%#v]", err)
		return nil, http.StatusInternalServerError, err
	}

	qParams := queuemanager.QueueMessageParams{
		QueueName: configmanager.ConfStore.QueueConnParams.QueueName,
		Msg:       string(msg),
	}
	if req.Priority != nil {
		qParams.Priority = *req.Priority
	}
	if req.DelaySecs != nil && *req.DelaySecs > 0 {
		qParams.Exchange = "delayed"
		qParams.Delay = *req.DelaySecs * 1000
	}
	if err := qParams.Enqueue(); err != nil {
		ymlogger.LogErrorf(queueID, "Failed to publish the call to the queue. Error: [%#v]", err)
		return nil, http.StatusInternalServerError, err
	}
	ymlogger.LogInfof(queueID, "Queued the call. To: [%s] Priority: [%#v] Delay: [%#v]", *req.To, req.Priority, req.DelaySecs)
	newrelic.SendCustomEvent("enqueue_call", map[string]interface{}{
		"queued": 1,
	})
	return &contracts.EnqueueCallResponse{
		Success: true,
		QueueID: queueID,
	}, http.StatusOK, nil
}
