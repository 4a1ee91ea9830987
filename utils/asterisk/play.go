package asterisk

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
)

// PlaySound starts playback of a sound file on a channel under the given
// playback id. The file name is resolved relative to the Asterisk sounds
// directory, extension stripped.
func PlaySound(
	ctx context.Context,
	callID string,
	channelID string,
	playbackID string,
	fileName string,
) error {
	fileWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return PlayMedia(ctx, callID, channelID, playbackID, "sound:"+fileWithoutExt)
}

// PlayMedia starts playback of a media URI on a channel
func PlayMedia(
	ctx context.Context,
	callID string,
	channelID string,
	playbackID string,
	mediaURI string,
) error {
	ymlogger.LogInfof(callID, "Running Play on channel: [%#v] Media: [%s]", channelID, mediaURI)
	chanPlayReq, err := http.NewRequest(http.MethodPost, configmanager.ConfStore.ARIURL+"/channels/"+channelID+"/play/"+playbackID, nil)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form chan play request. Error: [%#v]", err)
		return err
	}
	chanPlayReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)

	q := chanPlayReq.URL.Query()
	q.Add("media", mediaURI)
	q.Add("offsetms", "0")
	q.Add("skipms", "0")
	chanPlayReq.URL.RawQuery = q.Encode()
	chanPlayReq.Header.Set("Connection", "close")

	client := &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(5 * time.Second),
	}
	defer client.CloseIdleConnections()
	response, err := client.Do(chanPlayReq)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogErrorf(callID, "Error while playing to the channel. StatusCode: [%#v]", response.StatusCode)
		return ErrChannelNotFound
	}
	return nil
}

// StopPlayback stops a running playback by id
func StopPlayback(
	ctx context.Context,
	callID string,
	playbackID string,
) error {
	ymlogger.LogDebugf(callID, "Stopping playback: [%s]", playbackID)
	stopReq, err := http.NewRequest(http.MethodDelete, configmanager.ConfStore.ARIURL+"/playbacks/"+playbackID, nil)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to form playback stop request. Error: [%#v]", err)
		return err
	}
	stopReq.SetBasicAuth(configmanager.ConfStore.ARIUsername, configmanager.ConfStore.ARIPassword)
	stopReq.Header.Set("Connection", "close")

	client := &http.Client{
		Transport: &http.Transport{
			Dial:                (&net.Dialer{Timeout: 3 * time.Second}).Dial,
			TLSHandshakeTimeout: 3 * time.Second,
		},
		Timeout: time.Duration(5 * time.Second),
	}
	defer client.CloseIdleConnections()
	response, err := client.Do(stopReq)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogDebugf(callID, "Playback [%s] was not running. StatusCode: [%#v]", playbackID, response.StatusCode)
	}
	return nil
}
