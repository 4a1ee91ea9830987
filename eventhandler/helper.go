package eventhandler

import (
	"path/filepath"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
)

// recordingFilePath resolves a recording name to its on-disk wav file
func recordingFilePath(recordingName string) string {
	return filepath.Join(configmanager.ConfStore.RecordingDirectory, recordingName+".wav")
}
