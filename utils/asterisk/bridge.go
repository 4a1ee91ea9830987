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

// CreateBridge creates a mixing bridge with the given id
func CreateBridge(
	ctx context.Context,
	callID string,
	bridgeID string,
) (ari.BridgeData, error) {
	var bridgeRes ari.BridgeData
	bridgeReq, err := http.NewRequest(http.MethodPost, configmanager.ConfStore.ARIURL+"/bridges/"+bridgeID, nil)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form bridge create request. Error: [%#v]", err)
		return bridgeRes, err
	}
	bridgeReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)

	q := bridgeReq.URL.Query()
	q.Add("type", "mixing")
	bridgeReq.URL.RawQuery = q.Encode()
	bridgeReq.Header.Set("Connection", "close")

	client := &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(5 * time.Second),
	}
	defer client.CloseIdleConnections()
	response, err := client.Do(bridgeReq)
	if err != nil {
		return bridgeRes, err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogErrorf(callID, "Error while creating the bridge. StatusCode: [%#v]", response.StatusCode)
		return bridgeRes, errors.New("Error while creating the bridge")
	}
	respBody, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return bridgeRes, err
	}
	err = json.Unmarshal(respBody, &bridgeRes)
	if err != nil {
		ymlogger.LogErrorf(callID, "Error while unmarshalling the response. Body: [%#v]", respBody)
		return bridgeRes, err
	}
	return bridgeRes, nil
}

// AddChannelToBridge puts a channel into a bridge
func AddChannelToBridge(
	ctx context.Context,
	callID string,
	bridgeID string,
	channelID string,
) error {
	addReq, err := http.NewRequest(http.MethodPost, configmanager.ConfStore.ARIURL+"/bridges/"+bridgeID+"/addChannel", nil)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form bridge addChannel request. Error: [%#v]", err)
		return err
	}
	addReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)

	q := addReq.URL.Query()
	q.Add("channel", channelID)
	addReq.URL.RawQuery = q.Encode()
	addReq.Header.Set("Connection", "close")

	client := &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(5 * time.Second),
	}
	defer client.CloseIdleConnections()
	response, err := client.Do(addReq)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogErrorf(callID, "Error while adding channel [%s] to bridge. StatusCode: [%#v]", channelID, response.StatusCode)
		return errors.New("Error while adding the channel to the bridge")
	}
	return nil
}

// DestroyBridge tears a bridge down. A missing bridge is not an error.
func DestroyBridge(
	ctx context.Context,
	callID string,
	bridgeID string,
) error {
	delReq, err := http.NewRequest(http.MethodDelete, configmanager.ConfStore.ARIURL+"/bridges/"+bridgeID, nil)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form bridge destroy request. Error: [%#v]", err)
		return err
	}
	delReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)
	delReq.Header.Set("Connection", "close")

	client := &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(5 * time.Second),
	}
	defer client.CloseIdleConnections()
	response, err := client.Do(delReq)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		ymlogger.LogDebugf(callID, "Bridge [%s] already gone", bridgeID)
		return nil
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogErrorf(callID, "Error while destroying the bridge. StatusCode: [%#v]", response.StatusCode)
		return errors.New("Error while destroying the bridge")
	}
	return nil
}
