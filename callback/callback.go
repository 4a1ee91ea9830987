package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/metrics"
	"bitbucket.org/yellowmessenger/callcontrol-ari/newrelic"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
)

var timeLayout = "2006-01-02T15:04:05.000Z"

// Event is one webhook delivery scheduled for a call's callback URL
type Event struct {
	CallID      string
	CallbackURL string
	State       string
	Payload     []byte
}

var (
	client        *http.Client
	callbackQueue chan Event
)

// Init initializes the HTTP client and the delivery workers
func Init(ctx context.Context) {
	client = &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(10 * time.Second),
	}
	callbackQueue = make(chan Event, 1000)
	for i := 0; i < 20; i++ {
		go callbackQueueWorker(ctx, callbackQueue)
	}
	return
}

func callbackQueueWorker(ctx context.Context, queue chan Event) {
	for {
		event := <-queue
		HitCallback(ctx, event)
	}
}

// Send schedules a state callback for a call. The payload carries the state,
// call_id and timestamp on top of any state specific fields in data.
func Send(callID string, callbackURL string, state string, data map[string]interface{}) {
	if len(callbackURL) <= 0 {
		return
	}
	payload := make(map[string]interface{}, len(data)+3)
	for key, value := range data {
		payload[key] = value
	}
	payload["state"] = state
	payload["call_id"] = callID
	payload["timestamp"] = time.Now().UTC().Format(timeLayout)
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to prepare the callback request body. Error: [%#v]", err)
		return
	}
	event := Event{
		CallID:      callID,
		CallbackURL: callbackURL,
		State:       state,
		Payload:     payloadJSON,
	}
	select {
	case callbackQueue <- event:
	default:
		ymlogger.LogErrorf(callID, "Callback queue is full. Dropping [%s] event", state)
	}
	return
}

// HitCallback delivers one event to its callback URL with retries
func HitCallback(ctx context.Context, event Event) {
	ymlogger.LogDebugf(event.CallID, "Hitting Callback URL with request Body: [%s]", string(event.Payload))

	var response *http.Response
	var err error
	for i := 0; i < configmanager.ConfStore.CallbackMaxTries; i++ {
		callbackReq, reqErr := http.NewRequest(http.MethodPost, event.CallbackURL, bytes.NewBuffer(event.Payload))
		if reqErr != nil {
			ymlogger.LogErrorf(event.CallID, "Failed to prepare the callback request. Error: [%#v]", reqErr)
			return
		}
		callbackReq.Header.Set("Content-Type", "application/json")
		callbackReq.Header.Set("Connection", "close")

		response, err = client.Do(callbackReq)
		newrelic.SendCustomEvent("callbacks_metrics", map[string]interface{}{
			"status": "request_sent",
			"state":  event.State,
			"value":  1,
		})
		if response == nil || response.StatusCode < 200 || response.StatusCode >= 300 || err != nil {
			ymlogger.LogErrorf(event.CallID, "Retry: [%d]. Failed hitting the callback URL. Response: [%#v]. Error: [%#v]. Retrying", (i + 1), response, err)
			urlError, ok := err.(*url.Error)
			if ok {
				ymlogger.LogErrorf(event.CallID, "Logging the exact error. Error: [%#v]", urlError)
			}
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}
		break
	}
	if response == nil || response.StatusCode < 200 || response.StatusCode >= 300 || err != nil {
		ymlogger.LogErrorf(event.CallID, "Failed to hit the callback URL for [%s]. Error: [%#v]", event.State, err)
		newrelic.SendCustomEvent("callbacks_metrics", map[string]interface{}{
			"status": "failure",
			"state":  event.State,
			"value":  1,
		})
		sendDeliveryMetric(event, "failure")
		return
	}
	defer response.Body.Close()
	newrelic.SendCustomEvent("callbacks_metrics", map[string]interface{}{
		"status": "success",
		"state":  event.State,
		"value":  1,
	})
	sendDeliveryMetric(event, "success")
	respBody, err := ioutil.ReadAll(response.Body)
	if err != nil {
		ymlogger.LogErrorf(event.CallID, "Failed to get body from the response. Error: [%#v]", err)
		return
	}
	ymlogger.LogDebugf(event.CallID, "Successful response from the callback. Body: [%#v]", string(respBody))
	return
}

func sendDeliveryMetric(event Event, status string) {
	filters := make(map[string]string)
	fields := make(map[string]interface{})
	filters["state"] = event.State
	filters["status"] = status
	fields["count"] = 1
	metric, err := metrics.NewMetric("callback.stats", filters, fields)
	if err != nil {
		ymlogger.LogErrorf(event.CallID, "Failed to create the callback metric. Error: [%#v]", err)
		return
	}
	if err := metrics.SendMetric(metric); err != nil {
		ymlogger.LogErrorf(event.CallID, "Failed to send the callback metric. Error: [%#v]", err)
	}
}
