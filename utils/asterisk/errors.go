package asterisk

import "errors"

// ErrChannelNotFound is returned when Asterisk reports the channel gone
var ErrChannelNotFound = errors.New("Channel not found")
