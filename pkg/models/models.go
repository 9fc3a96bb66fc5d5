package models

import "net/url"

// Task types sent by the backend
const (
	TaskTypeInstall   = "install"
	TaskTypeUninstall = "uninstall"
)

// Acknowledgment statuses
const (
	AckStatusSuccess = "success"
	AckStatusFailed  = "failed"
)

// HostIdentity identifies this endpoint to the backend; it is the heartbeat request body
type HostIdentity struct {
	Hostname     string `json:"hostname"`
	MACAddress   string `json:"mac_address"`
	OSDescriptor string `json:"os_descriptor"`
}

// HeartbeatResponse carries pending work orders and an optional machine token
type HeartbeatResponse struct {
	Status       string  `json:"status"`
	Tasks        []Task  `json:"tasks"`
	MachineToken *string `json:"machine_token,omitempty"`
}

// Task is a single install or uninstall work order
type Task struct {
	ID           int    `json:"id"`
	Type         string `json:"type"` // install, uninstall
	SoftwareName string `json:"software_name"`
	DownloadURL  string `json:"download_url"`
	SilentArgs   string `json:"silent_args"`
}

// AckRequest reports the outcome of a task
type AckRequest struct {
	TaskID     int    `json:"task_id"`
	Status     string `json:"status"` // success, failed
	Message    string `json:"message"`
	MACAddress string `json:"mac_address"`
}

// LogEvent is an agent-side event reported to the backend log endpoint.
// The endpoint reads its fields from the query string.
type LogEvent struct {
	MACAddress string
	Level      string
	Message    string
}

// Query encodes the event as log endpoint parameters
func (e LogEvent) Query() url.Values {
	return url.Values{
		"mac_address": {e.MACAddress},
		"level":       {e.Level},
		"message":     {e.Message},
	}
}
