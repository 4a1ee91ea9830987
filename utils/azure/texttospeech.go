package azure

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/newrelic"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
)

// DefaultVoice is used when a request carries no voice name
const DefaultVoice = "en-US-JennyNeural"

var azureTTSHTTPClient *http.Client

// InitAzureTTSHTTPClient initializes the TTS HTTP client
func InitAzureTTSHTTPClient() {
	azureTTSHTTPClient = &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConnsPerHost:   150,
			MaxIdleConns:          150,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   3 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: 20000 * time.Millisecond,
	}
}

// GetSpeechFile synthesizes text to an 8kHz wav file in the Asterisk sounds
// directory and returns the file path. Every call gets a fresh unique file,
// dedup across repeated texts is the caller's TTS cache.
func GetSpeechFile(
	ctx context.Context,
	callID string,
	text string,
	voice string,
) (string, error) {
	if len(voice) <= 0 {
		voice = DefaultVoice
	}
	fileName := fmt.Sprintf("tts_%s_%s%04d.wav", callID, time.Now().Format("20060102150405"), rand.Intn(10000))
	speechFile := filepath.Join(configmanager.ConfStore.SoundsDirectory, fileName)

	respData, err := getSpeech(ctx, callID, text, voice)
	if err != nil {
		return "", err
	}
	if err = ioutil.WriteFile(speechFile, respData, 0644); err != nil {
		ymlogger.LogErrorf(callID, "Failed to write the content to the file. Error: [%#v]", err)
		return "", err
	}
	return speechFile, nil
}

func getSpeech(
	ctx context.Context,
	callID string,
	text string,
	voice string,
) ([]byte, error) {
	endpoint := "https://" + configmanager.ConfStore.AzureTTSRegion + ".tts.speech.microsoft.com/cognitiveservices/v1"
	ssml := `<speak version='1.0' xml:lang='en-US'><voice name='` + voice + `'>` + escapeSSML(text) + `</voice></speak>`

	var response *http.Response
	var err error
	var sTime time.Time
	for i := 0; i < configmanager.ConfStore.ARIAPIRetry; i++ {
		var ttsReq *http.Request
		ttsReq, err = http.NewRequest(http.MethodPost, endpoint, bytes.NewBuffer([]byte(ssml)))
		if err != nil {
			ymlogger.LogErrorf(callID, "Error while preparing TTS request. Error: [%#v]", err)
			return nil, err
		}
		ttsReq = ttsReq.WithContext(ctx)
		ttsReq.Header.Add("X-Microsoft-OutputFormat", "riff-8khz-16bit-mono-pcm")
		ttsReq.Header.Add("Content-type", "application/ssml+xml")
		ttsReq.Header.Add("Ocp-Apim-Subscription-Key", configmanager.ConfStore.AzureTTSAPIKey)
		ttsReq.Header.Add("User-Agent", "GoClient")

		sTime = time.Now()
		response, err = azureTTSHTTPClient.Do(ttsReq)
		if response != nil && response.StatusCode == http.StatusTooManyRequests {
			response.Body.Close()
			ymlogger.LogErrorf(callID, "TTS rate limited. Retrying after delay")
			time.Sleep(1 * time.Second)
			response, err = azureTTSHTTPClient.Do(ttsReq)
			if response != nil && response.StatusCode == http.StatusTooManyRequests {
				response.Body.Close()
				return nil, ErrRateLimited
			}
		}
		if err != nil || response == nil || response.StatusCode < 200 || response.StatusCode >= 300 {
			if response != nil {
				response.Body.Close()
			}
			ymlogger.LogErrorf(callID, "Retry: [%d]. Error while getting the TTS response. Error: [%#v]", (i + 1), err)
			time.Sleep(time.Duration(1<<uint(i)) * 500 * time.Millisecond)
			continue
		}
		break
	}
	if err != nil || response == nil || response.StatusCode < 200 || response.StatusCode >= 300 {
		ymlogger.LogErrorf(callID, "Failed to get the response from TTS. Error: [%#v]", err)
		return nil, ErrTransient
	}
	defer response.Body.Close()
	respData, err := ioutil.ReadAll(response.Body)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to read the response from TTS Response body. Error: [%#v]", err)
		return nil, err
	}
	if err := newrelic.SendCustomEvent("voice_azure_tts", map[string]interface{}{
		"response_time": time.Since(sTime).Milliseconds(),
		"characters":    len(ssml),
	}); err != nil {
		ymlogger.LogErrorf("NewRelicMetric", "Failed to send voice_azure_tts metric to newrelic. Error: [%#v]", err)
	}
	return respData, nil
}

func escapeSSML(text string) string {
	escaped := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '&':
			escaped = append(escaped, []byte("&amp;")...)
		case '<':
			escaped = append(escaped, []byte("&lt;")...)
		case '>':
			escaped = append(escaped, []byte("&gt;")...)
		default:
			escaped = append(escaped, text[i])
		}
	}
	return string(escaped)
}

// DeleteSpeechFile removes a synthesized file, tolerating a missing one
func DeleteSpeechFile(callID string, filePath string) {
	if len(filePath) <= 0 {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		ymlogger.LogErrorf(callID, "Failed to delete the speech file [%s]. Error: [%#v]", filePath, err)
	}
}
