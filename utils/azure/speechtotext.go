package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"mime/multipart"
	"net"
	"net/http"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/newrelic"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
)

var azureSTTHTTPClient *http.Client

// InitAzureSTTHTTPClient initializes the STT HTTP client
func InitAzureSTTHTTPClient() {
	azureSTTHTTPClient = &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConnsPerHost:   150,
			MaxIdleConns:          150,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   3 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: 10 * time.Second,
	}
}

type transcriptionDefinition struct {
	Locales []string `json:"locales"`
}

type transcriptionResponse struct {
	CombinedPhrases []struct {
		Text string `json:"text"`
	} `json:"combinedPhrases"`
}

// GetTextFromSpeech sends wav audio through the fast transcription API and
// returns the combined transcript
func GetTextFromSpeech(
	ctx context.Context,
	callID string,
	wavData []byte,
	language string,
) (string, error) {
	if len(language) <= 0 {
		language = "en-US"
	}
	endpoint := "https://" + configmanager.ConfStore.AzureSTTRegion + ".api.cognitive.microsoft.com/speechtotext/transcriptions:transcribe?api-version=2024-11-15"

	definition, err := json.Marshal(transcriptionDefinition{Locales: []string{language}})
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	audioPart, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return "", err
	}
	if _, err = audioPart.Write(wavData); err != nil {
		return "", err
	}
	if err = writer.WriteField("definition", string(definition)); err != nil {
		return "", err
	}
	if err = writer.Close(); err != nil {
		return "", err
	}

	sTime := time.Now()
	response, err := doTranscribeRequest(ctx, callID, endpoint, body.Bytes(), writer.FormDataContentType())
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	respData, err := ioutil.ReadAll(response.Body)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to read the STT response body. Error: [%#v]", err)
		return "", err
	}
	if err := newrelic.SendCustomEvent("voice_azure_stt", map[string]interface{}{
		"response_time": time.Since(sTime).Milliseconds(),
		"audio_bytes":   len(wavData),
	}); err != nil {
		ymlogger.LogErrorf("NewRelicMetric", "Failed to send voice_azure_stt metric to newrelic. Error: [%#v]", err)
	}

	var transcription transcriptionResponse
	if err = json.Unmarshal(respData, &transcription); err != nil {
		ymlogger.LogErrorf(callID, "Error while unmarshalling the STT response. Body: [%s]", string(respData))
		return "", err
	}
	if len(transcription.CombinedPhrases) <= 0 {
		return "", nil
	}
	return transcription.CombinedPhrases[0].Text, nil
}

func doTranscribeRequest(
	ctx context.Context,
	callID string,
	endpoint string,
	body []byte,
	contentType string,
) (*http.Response, error) {
	var response *http.Response
	var err error
	for i := 0; i < configmanager.ConfStore.ARIAPIRetry; i++ {
		var sttReq *http.Request
		sttReq, err = http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		sttReq = sttReq.WithContext(ctx)
		sttReq.Header.Set("Ocp-Apim-Subscription-Key", configmanager.ConfStore.AzureSTTAPIKey)
		sttReq.Header.Set("Content-Type", contentType)

		response, err = azureSTTHTTPClient.Do(sttReq)
		if response != nil && response.StatusCode == http.StatusTooManyRequests {
			response.Body.Close()
			ymlogger.LogErrorf(callID, "STT rate limited. Retrying after delay")
			time.Sleep(1 * time.Second)
			sttReq, _ = http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
			sttReq = sttReq.WithContext(ctx)
			sttReq.Header.Set("Ocp-Apim-Subscription-Key", configmanager.ConfStore.AzureSTTAPIKey)
			sttReq.Header.Set("Content-Type", contentType)
			response, err = azureSTTHTTPClient.Do(sttReq)
			if response != nil && response.StatusCode == http.StatusTooManyRequests {
				response.Body.Close()
				return nil, ErrRateLimited
			}
		}
		if err != nil || response == nil || response.StatusCode < 200 || response.StatusCode >= 300 {
			if response != nil {
				response.Body.Close()
			}
			ymlogger.LogErrorf(callID, "Retry: [%d]. Error while getting the STT response. Error: [%#v]", (i + 1), err)
			time.Sleep(time.Duration(1<<uint(i)) * 500 * time.Millisecond)
			continue
		}
		return response, nil
	}
	return nil, ErrTransient
}
