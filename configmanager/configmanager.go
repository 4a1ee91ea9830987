package configmanager

import (
	"encoding/json"
	"io/ioutil"

	"bitbucket.org/yellowmessenger/callcontrol-ari/metrics"
	"bitbucket.org/yellowmessenger/callcontrol-ari/queuemanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
)

type appconfig struct {
	LoggerConf           ymlogger.LoggerConf              `json:"logger_conf"`
	MetricsConf          metrics.Config                   `json:"metrics_conf"`
	QueueConnParams      queuemanager.QueueConnParams     `json:"queue_conn_params"`
	QueueListenerParams  queuemanager.QueueListenerParams `json:"queue_listener_params"`
	MySQLUser            string                           `json:"mysql_user"`
	MySQLPassword        string                           `json:"mysql_password"`
	MySQLDB              string                           `json:"mysql_db"`
	ARIApplication       string                           `json:"ari_application"`
	ARIUsername          string                           `json:"ari_username"`
	ARIPassword          string                           `json:"ari_password"`
	ARIURL               string                           `json:"ari_url"`
	ARIWebsocketURL      string                           `json:"ari_websocket_url"`
	ARIAPIRetry          int                              `json:"ari_api_retry"`
	PJSIPTrunk           string                           `json:"pjsip_trunk"`
	OriginateContext     string                           `json:"originate_context"`
	AMDContext           string                           `json:"amd_context"`
	OriginateTimeout     int                              `json:"originate_timeout"`
	APIBaseURL           string                           `json:"api_base_url"`
	SoundsDirectory      string                           `json:"sounds_directory"`
	RecordingDirectory   string                           `json:"recording_directory"`
	HoldAudioFile        string                           `json:"hold_audio_file"`
	AzureTTSAPIKey       string                           `json:"azure_tts_api_key"`
	AzureTTSRegion       string                           `json:"azure_tts_region"`
	AzureSTTAPIKey       string                           `json:"azure_stt_api_key"`
	AzureSTTRegion       string                           `json:"azure_stt_region"`
	OpenAIAPIKey         string                           `json:"openai_api_key"`
	OpenAIModel          string                           `json:"openai_model"`
	CallbackMaxTries     int                              `json:"callback_max_tries"`
	MinimumBalance       float64                          `json:"minimum_balance"`
	MinChargeableSecs    int                              `json:"min_chargeable_secs"`
	TransferTotalTime    int                              `json:"transfer_total_time"`
	AzureBlobAccount     string                           `json:"azure_blob_account"`
	AzureBlobAccessKey   string                           `json:"azure_blob_access_key"`
	AzureBlobContainer   string                           `json:"azure_blob_container"`
	FileRetentionHours   int                              `json:"file_retention_hours"`
	CallLogRetentionDays int                              `json:"call_log_retention_days"`
}

// ConfStore stores the configuration variables
var ConfStore *appconfig

// InitConfig initializes the config
func InitConfig(
	fileName string,
) error {
	data, err := ioutil.ReadFile(fileName)
	if err != nil {
		return err
	}
	if err = json.Unmarshal([]byte(data), &ConfStore); err != nil {
		return err
	}
	setDefaults()
	ymlogger.LogInfo("InitConfig", "Configuration loaded")
	return nil
}

func setDefaults() {
	if ConfStore.ARIAPIRetry <= 0 {
		ConfStore.ARIAPIRetry = 3
	}
	if ConfStore.OriginateTimeout <= 0 {
		ConfStore.OriginateTimeout = 120
	}
	if ConfStore.CallbackMaxTries <= 0 {
		ConfStore.CallbackMaxTries = 3
	}
	if ConfStore.MinimumBalance <= 0 {
		ConfStore.MinimumBalance = 1.00
	}
	if ConfStore.MinChargeableSecs <= 0 {
		ConfStore.MinChargeableSecs = 3
	}
	if ConfStore.TransferTotalTime <= 0 {
		ConfStore.TransferTotalTime = 300
	}
	if ConfStore.OriginateContext == "" {
		ConfStore.OriginateContext = "steroid"
	}
	if ConfStore.AMDContext == "" {
		ConfStore.AMDContext = "amd-detection"
	}
	if ConfStore.HoldAudioFile == "" {
		ConfStore.HoldAudioFile = "hold"
	}
	if ConfStore.SoundsDirectory == "" {
		ConfStore.SoundsDirectory = "/var/lib/asterisk/sounds"
	}
	if ConfStore.RecordingDirectory == "" {
		ConfStore.RecordingDirectory = "/var/spool/asterisk/recording"
	}
	if ConfStore.OpenAIModel == "" {
		ConfStore.OpenAIModel = "gpt-4o-mini"
	}
	if ConfStore.FileRetentionHours <= 0 {
		ConfStore.FileRetentionHours = 12
	}
	if ConfStore.CallLogRetentionDays <= 0 {
		ConfStore.CallLogRetentionDays = 14
	}
}
