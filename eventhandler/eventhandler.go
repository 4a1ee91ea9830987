package eventhandler

import (
	"context"
	"strings"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/media"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	"github.com/CyCoreSystems/ari"
)

// InitEventLoop subscribes to the control-plane event stream and dispatches
// each event to its handler. Runs until the context is cancelled.
func InitEventLoop(
	ctx context.Context,
	ariClient ari.Client,
) {
	stasisStart := ariClient.Bus().Subscribe(nil, ari.Events.StasisStart)
	defer stasisStart.Cancel()
	chanStateChange := ariClient.Bus().Subscribe(nil, ari.Events.ChannelStateChange)
	defer chanStateChange.Cancel()
	chanDest := ariClient.Bus().Subscribe(nil, ari.Events.ChannelDestroyed)
	defer chanDest.Cancel()
	chanDtmf := ariClient.Bus().Subscribe(nil, ari.Events.ChannelDtmfReceived)
	defer chanDtmf.Cancel()
	playbackFin := ariClient.Bus().Subscribe(nil, ari.Events.PlaybackFinished)
	defer playbackFin.Cancel()
	playbackFail := ariClient.Bus().Subscribe(nil, ari.Events.PlaybackFailed)
	defer playbackFail.Cancel()
	recordingFin := ariClient.Bus().Subscribe(nil, ari.Events.RecordingFinished)
	defer recordingFin.Cancel()
	recordingFail := ariClient.Bus().Subscribe(nil, ari.Events.RecordingFailed)
	defer recordingFail.Cancel()

	for {
		select {
		case e := <-stasisStart.Events():
			v := e.(*ari.StasisStart)
			ymlogger.LogInfof("EventLoop", "Got Stasis Start Event. Channel: [%s] Args: [%v]", v.Channel.ID, v.Args)
			go StasisStartHandler(ctx, v)
		case e := <-chanStateChange.Events():
			v := e.(*ari.ChannelStateChange)
			ymlogger.LogDebugf("EventLoop", "Got Channel State Change Event. Channel: [%s] State: [%s]", v.Channel.ID, v.Channel.State)
			go ChannelStateChangeHandler(ctx, v)
		case e := <-chanDest.Events():
			v := e.(*ari.ChannelDestroyed)
			ymlogger.LogInfof("EventLoop", "Got Channel Destroyed Event. Channel: [%s] Cause: [%d]", v.Channel.ID, v.Cause)
			go ChannelDestroyedHandler(ctx, v)
		case e := <-chanDtmf.Events():
			v := e.(*ari.ChannelDtmfReceived)
			ymlogger.LogDebugf("EventLoop", "Got DTMF Event. Channel: [%s] Digit: [%s]", v.Channel.ID, v.Digit)
			go DtmfReceivedHandler(ctx, v)
		case e := <-playbackFin.Events():
			v := e.(*ari.PlaybackFinished)
			go PlaybackFinishedHandler(ctx, v)
		case e := <-playbackFail.Events():
			v := e.(*ari.PlaybackFailed)
			go PlaybackFailedHandler(ctx, v)
		case e := <-recordingFin.Events():
			v := e.(*ari.RecordingFinished)
			ymlogger.LogDebugf("EventLoop", "Got Recording Finished Event. Name: [%s]", v.Recording.Name)
		case e := <-recordingFail.Events():
			v := e.(*ari.RecordingFailed)
			go RecordingFailedHandler(ctx, v)
		case <-ctx.Done():
			return
		}
	}
}

func isSnoopChannel(channelName string) bool {
	return strings.HasPrefix(channelName, "Snoop/")
}

// channelIDFromTargetURI extracts the channel id out of a playback target
// like "channel:1590401546.12"
func channelIDFromTargetURI(targetURI string) string {
	if idx := strings.Index(targetURI, ":"); idx >= 0 {
		return targetURI[idx+1:]
	}
	return targetURI
}

// DtmfReceivedHandler routes a digit to its call
func DtmfReceivedHandler(ctx context.Context, v *ari.ChannelDtmfReceived) {
	callID, err := call.FindCallIDByChannel(v.Channel.ID)
	if err != nil {
		return
	}
	media.OnDtmfReceived(ctx, callID, v.Channel.ID, v.Digit)
}

// PlaybackFinishedHandler advances whatever was waiting on the playback
func PlaybackFinishedHandler(ctx context.Context, v *ari.PlaybackFinished) {
	channelID := channelIDFromTargetURI(v.Playback.TargetURI)
	callID, err := call.FindCallIDByChannel(channelID)
	if err != nil {
		return
	}
	media.OnPlaybackFinished(ctx, callID, v.Playback.ID)
}

// PlaybackFailedHandler retries or surfaces a failed playback
func PlaybackFailedHandler(ctx context.Context, v *ari.PlaybackFailed) {
	channelID := channelIDFromTargetURI(v.Playback.TargetURI)
	callID, err := call.FindCallIDByChannel(channelID)
	if err != nil {
		return
	}
	media.OnPlaybackFailed(ctx, callID, v.Playback.ID)
}
