package asterisk

import (
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net"
	"net/http"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	"github.com/CyCoreSystems/ari"
)

// SnoopChannel creates a passive spy channel on an active channel
func SnoopChannel(
	ctx context.Context,
	callID string,
	channelID string,
	snoopDirection string,
	snoopID string,
) (ari.ChannelData, error) {
	// snoopRes holds the response from the http request
	var snoopRes ari.ChannelData
	url := configmanager.ConfStore.ARIURL + "/channels/" + channelID + "/snoop"
	if len(snoopID) > 0 {
		url = url + "/" + snoopID
	}
	snoopReq, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form snoop request. Error: [%#v]", err)
		return snoopRes, err
	}
	snoopReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)

	q := snoopReq.URL.Query()
	q.Add("spy", snoopDirection)
	q.Add("app", configmanager.ConfStore.ARIApplication)
	snoopReq.URL.RawQuery = q.Encode()
	snoopReq.Header.Set("Connection", "close")

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
		response, err = client.Do(snoopReq)
		if response != nil {
			defer response.Body.Close()
		}
		if err != nil || response == nil || response.StatusCode < 200 || response.StatusCode >= 300 {
			ymlogger.LogErrorf(callID, "Error while getting the response for SnoopChannel. Error: [%#v]. Retrying......", err)
			continue
		}
		break
	}
	if err != nil || response == nil || response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogErrorf(callID, "Error while snooping the channel. Error: [%#v]", err)
		return snoopRes, errors.New("Error while snooping the channel")
	}
	respBody, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return snoopRes, err
	}
	err = json.Unmarshal(respBody, &snoopRes)
	if err != nil {
		ymlogger.LogErrorf(callID, "Error while unmarshalling the response. Body: [%#v]", respBody)
		return snoopRes, err
	}
	return snoopRes, nil
}

// RecordChannel starts recording a channel to a wav file. The recording
// grows on disk while the channel lives, which is what the assistant loop
// tails for voice activity.
func RecordChannel(
	ctx context.Context,
	callID string,
	channelID string,
	recordingName string,
) error {
	ymlogger.LogInfof(callID, "Going to record the channel. Channel ID=[%#v] Name: [%s]", channelID, recordingName)
	recordReq, err := http.NewRequest(http.MethodPost, configmanager.ConfStore.ARIURL+"/channels/"+channelID+"/record", nil)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form record request. Error: [%#v]", err)
		return err
	}
	recordReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)

	q := recordReq.URL.Query()
	q.Add("name", recordingName)
	q.Add("format", "wav")
	q.Add("ifExists", "overwrite")
	q.Add("terminateOn", "none")
	recordReq.URL.RawQuery = q.Encode()
	recordReq.Header.Set("Connection", "close")

	client := &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(5 * time.Second),
	}
	defer client.CloseIdleConnections()
	response, err := client.Do(recordReq)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogErrorf(callID, "Error while recording the channel. StatusCode: [%#v]", response.StatusCode)
		return errors.New("Error while recording the channel")
	}
	return nil
}
