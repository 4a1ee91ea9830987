package housekeeping

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/models/mysql"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
)

const fileSweepInterval = 1 * time.Hour
const callLogSweepInterval = 24 * time.Hour

// Start runs the periodic sweeps until the context is cancelled
func Start(ctx context.Context) {
	go fileSweepLoop(ctx)
	go callLogSweepLoop(ctx)
}

func fileSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(fileSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			SweepAgedFiles()
		}
	}
}

func callLogSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(callLogSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			retentionDays := configmanager.ConfStore.CallLogRetentionDays
			deleted, err := mysql.DeleteOldCallStates(retentionDays)
			if err != nil {
				ymlogger.LogErrorf("HouseKeeping", "Failed to delete old call states. Error: [%#v]", err)
				continue
			}
			ymlogger.LogInfof("HouseKeeping", "Deleted [%d] call states older than [%d] days", deleted, retentionDays)
		}
	}
}

// SweepAgedFiles removes synthesized and recorded audio files past the
// retention window. The hold sound is permanent and never swept.
func SweepAgedFiles() {
	cutoff := time.Now().Add(-time.Duration(configmanager.ConfStore.FileRetentionHours) * time.Hour)
	for _, dir := range []string{configmanager.ConfStore.SoundsDirectory, configmanager.ConfStore.RecordingDirectory} {
		if len(dir) == 0 {
			continue
		}
		removed := sweepDir(dir, cutoff)
		if removed > 0 {
			ymlogger.LogInfof("HouseKeeping", "Removed [%d] aged files from [%s]", removed, dir)
		}
	}
}

func sweepDir(dir string, cutoff time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		ymlogger.LogErrorf("HouseKeeping", "Failed to read the directory [%s]. Error: [%#v]", dir, err)
		return 0
	}
	holdSound := filepath.Base(configmanager.ConfStore.HoldAudioFile)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".wav") {
			continue
		}
		if entry.Name() == holdSound || entry.Name() == holdSound+".wav" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			ymlogger.LogErrorf("HouseKeeping", "Failed to remove the file [%s]. Error: [%#v]", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed
}
