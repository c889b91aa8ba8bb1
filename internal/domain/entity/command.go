package entity

import "time"

// CommandStatus tracks a pending out-of-band instruction for a device.
// Completion is reported through a separate upload channel, so commands only
// move pending -> processing here.
type CommandStatus string

const (
	CommandPending    CommandStatus = "pending"
	CommandProcessing CommandStatus = "processing"
)

// Command types understood by the agent.
const (
	CommandCaptureScreenshot = "capture_screenshot"
	CommandRestartPlayback   = "restart_playback"
)

// Command is a per-device instruction delivered at most one per heartbeat,
// oldest first. Delivery is at-most-once, best-effort.
type Command struct {
	ID        int64         `json:"id"`
	DeviceID  int64         `json:"device_id"`
	Type      string        `json:"type"`
	RequestID string        `json:"request_id,omitempty"`
	Status    CommandStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
