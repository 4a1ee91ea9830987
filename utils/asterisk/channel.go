package asterisk

import (
	"context"
	"net"
	"net/http"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
)

// AnswerChannel answers a ringing channel
func AnswerChannel(
	ctx context.Context,
	callID string,
	channelID string,
) error {
	ymlogger.LogInfof(callID, "Going to answer the call. Channel ID: [%#v]", channelID)
	answerReq, err := http.NewRequest(http.MethodPost, configmanager.ConfStore.ARIURL+"/channels/"+channelID+"/answer", nil)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form answer request. Error: [%#v]", err)
		return err
	}
	answerReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)
	answerReq.Header.Set("Connection", "close")

	client := &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(5 * time.Second),
	}
	defer client.CloseIdleConnections()
	var response *http.Response
	for i := 0; i < configmanager.ConfStore.ARIAPIRetry; i++ {
		response, err = client.Do(answerReq)
		if response != nil {
			defer response.Body.Close()
		}
		if err != nil || response == nil || response.StatusCode < 200 || response.StatusCode >= 300 {
			ymlogger.LogErrorf(callID, "Error while answering the channel. Error: [%#v]. Retrying......", err)
			continue
		}
		break
	}
	if err != nil || response == nil || response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogErrorf(callID, "Failed to answer the channel. Error: [%#v]", err)
		return ErrChannelNotFound
	}
	return nil
}

// HangupChannel destroys a channel with the given reason
func HangupChannel(
	ctx context.Context,
	callID string,
	channelID string,
	reason string,
) error {
	ymlogger.LogDebugf(callID, "Trying to hangup the channel. ChannelID: [%#v] Reason: [%#v]", channelID, reason)
	chanDelReq, err := http.NewRequest(http.MethodDelete, configmanager.ConfStore.ARIURL+"/channels/"+channelID, nil)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form channel hangup request. Error: [%#v]", err)
		return err
	}
	chanDelReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)

	q := chanDelReq.URL.Query()
	q.Add("reason", reason)
	chanDelReq.URL.RawQuery = q.Encode()
	chanDelReq.Header.Set("Connection", "close")

	client := &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(5 * time.Second),
	}
	defer client.CloseIdleConnections()
	response, err := client.Do(chanDelReq)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogErrorf(callID, "Error while destroying the channel. StatusCode: [%#v]", response.StatusCode)
		return ErrChannelNotFound
	}
	return nil
}

// ChannelExists probes whether a channel is still reachable
func ChannelExists(
	ctx context.Context,
	callID string,
	channelID string,
) bool {
	chanGetReq, err := http.NewRequest(http.MethodGet, configmanager.ConfStore.ARIURL+"/channels/"+channelID, nil)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form channel get request. Error: [%#v]", err)
		return false
	}
	chanGetReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)
	chanGetReq.Header.Set("Connection", "close")

	client := &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(5 * time.Second),
	}
	defer client.CloseIdleConnections()
	response, err := client.Do(chanGetReq)
	if err != nil {
		return false
	}
	defer response.Body.Close()
	return response.StatusCode >= 200 && response.StatusCode < 300
}

// ContinueToAMD redirects a channel into the machine detection dialplan
// context. The channel re-enters the stasis application afterwards with the
// classification in its app arguments.
func ContinueToAMD(
	ctx context.Context,
	callID string,
	channelID string,
) error {
	contReq, err := http.NewRequest(http.MethodPost, configmanager.ConfStore.ARIURL+"/channels/"+channelID+"/continue", nil)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form channel continue request. Error: [%#v]", err)
		return err
	}
	contReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)

	q := contReq.URL.Query()
	q.Add("context", configmanager.ConfStore.AMDContext)
	q.Add("extension", "s")
	q.Add("priority", "1")
	contReq.URL.RawQuery = q.Encode()
	contReq.Header.Set("Connection", "close")

	client := &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(5 * time.Second),
	}
	defer client.CloseIdleConnections()
	response, err := client.Do(contReq)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogErrorf(callID, "Error while continuing the channel to AMD. StatusCode: [%#v]", response.StatusCode)
		return ErrChannelNotFound
	}
	return nil
}
