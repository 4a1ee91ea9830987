package asterisk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/phonenumber"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	"github.com/CyCoreSystems/ari"
)

// Originate creates a channel to the dialed number through the PJSIP trunk
// and drops it into the stasis application with the call id as app argument.
func Originate(
	ctx context.Context,
	callID string,
	number phonenumber.PhoneNumber,
	callerID phonenumber.PhoneNumber,
) (ari.ChannelData, error) {
	// callRes holds the response from the http request
	var callRes ari.ChannelData

	postData := []byte(`{"variables":{"CALLID": "` + callID + `"}}`)
	callReq, err := http.NewRequest(http.MethodPost, configmanager.ConfStore.ARIURL+"/channels", bytes.NewBuffer(postData))
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form call create request. Error: [%#v]", err)
		return callRes, err
	}

	// Set Basic authentication for the request
	callReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)

	endpoint := "PJSIP/" + number.DialString + "@" + configmanager.ConfStore.PJSIPTrunk
	if number.IsSipUser {
		endpoint = number.DialString
	}

	// Set required query parameters
	q := callReq.URL.Query()
	q.Add("endpoint", endpoint)
	q.Add("app", configmanager.ConfStore.ARIApplication)
	q.Add("appArgs", callID)
	q.Add("callerId", callerID.DialString)
	q.Add("timeout", strconv.Itoa(configmanager.ConfStore.OriginateTimeout))
	callReq.URL.RawQuery = q.Encode()

	// Add Content Type Header
	callReq.Header.Add("Content-type", "application/json")

	// Initlialize HTTP client
	client := &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(30 * time.Second),
	}
	defer client.CloseIdleConnections()
	var response *http.Response
	for i := 0; i < configmanager.ConfStore.ARIAPIRetry; i++ {
		// Make the http request
		response, err = client.Do(callReq)
		if response != nil {
			defer response.Body.Close()
		}
		if err != nil || response == nil || response.StatusCode < 200 || response.StatusCode >= 300 {
			ymlogger.LogErrorf(callID, "Error while creating the channel. Error: [%#v]. Retrying......", err)
			continue
		}
		break
	}
	if err != nil {
		ymlogger.LogErrorf(callID, "Error while creating the channel. Error: [%#v]", err)
		return callRes, err
	}
	if response == nil || response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogErrorf(callID, "Non 2xx response while creating the channel.")
		return callRes, errors.New("Non 2xx response")
	}
	respBody, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return callRes, err
	}
	err = json.Unmarshal(respBody, &callRes)
	if err != nil {
		ymlogger.LogErrorf(callID, "Error while unmarshalling the response. Body: [%#v]", respBody)
		return callRes, err
	}
	return callRes, nil
}

// OriginateTransferLeg creates the second leg of a transfer to the forward
// number. The leg enters the stasis application carrying the parent call id
// and a transfer marker as app arguments.
func OriginateTransferLeg(
	ctx context.Context,
	callID string,
	forward phonenumber.PhoneNumber,
	callerID phonenumber.PhoneNumber,
) (ari.ChannelData, error) {
	var callRes ari.ChannelData

	callReq, err := http.NewRequest(http.MethodPost, configmanager.ConfStore.ARIURL+"/channels", nil)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form transfer leg request. Error: [%#v]", err)
		return callRes, err
	}
	callReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)

	q := callReq.URL.Query()
	q.Add("endpoint", "PJSIP/"+forward.DialString+"@"+configmanager.ConfStore.PJSIPTrunk)
	q.Add("app", configmanager.ConfStore.ARIApplication)
	q.Add("appArgs", callID+",transfer")
	q.Add("callerId", callerID.DialString)
	q.Add("timeout", strconv.Itoa(configmanager.ConfStore.OriginateTimeout))
	callReq.URL.RawQuery = q.Encode()
	callReq.Header.Set("Connection", "close")

	client := &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(30 * time.Second),
	}
	defer client.CloseIdleConnections()
	var response *http.Response
	for i := 0; i < configmanager.ConfStore.ARIAPIRetry; i++ {
		response, err = client.Do(callReq)
		if response != nil {
			defer response.Body.Close()
		}
		if err != nil || response == nil || response.StatusCode < 200 || response.StatusCode >= 300 {
			ymlogger.LogErrorf(callID, "Error while creating the transfer leg. Error: [%#v]. Retrying......", err)
			continue
		}
		break
	}
	if err != nil || response == nil || response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogErrorf(callID, "Failed to create the transfer leg. Error: [%#v]", err)
		return callRes, errors.New("Error while creating the transfer leg")
	}
	respBody, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return callRes, err
	}
	err = json.Unmarshal(respBody, &callRes)
	if err != nil {
		ymlogger.LogErrorf(callID, "Error while unmarshalling the response. Body: [%#v]", respBody)
		return callRes, err
	}
	return callRes, nil
}
