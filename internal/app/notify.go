package app

import (
	"mcpbridge/pkg/logging"

	"github.com/coreos/go-systemd/v22/daemon"
)

// notifySystemd reports a state change to the service manager. Outside of a
// systemd unit with Type=notify this is a no-op.
func notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Warn("Systemd", "Failed to notify service manager: %v", err)
		return
	}
	if sent {
		logging.Debug("Systemd", "Notified service manager: %s", state)
	}
}
