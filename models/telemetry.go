package models

// DeviceType identifies the class of industrial device reporting telemetry.
type DeviceType string

const (
	DeviceMotor      DeviceType = "motor"
	DeviceHVAC       DeviceType = "hvac"
	DeviceCompressor DeviceType = "compressor"
	DeviceLighting   DeviceType = "lighting"
)

// DeviceStatus is the operational state reported by a device.
type DeviceStatus string

const (
	DeviceOff      DeviceStatus = "off"
	DeviceStarting DeviceStatus = "starting"
	DeviceRunning  DeviceStatus = "running"
	DeviceFault    DeviceStatus = "fault"
)

// DeviceSample is one point-in-time reading of a device's electrical state.
// Samples are immutable once received; each telemetry poll supersedes the
// previous set wholesale rather than merging field by field.
type DeviceSample struct {
	DeviceID   string       `json:"device_id"`
	DeviceType DeviceType   `json:"device_type"`
	Status     DeviceStatus `json:"status"`
	Voltage    float64      `json:"voltage"`
	Current    float64      `json:"current"`
	Power      float64      `json:"power"`
	Timestamp  float64      `json:"timestamp"`
}

// LiveResponse is the payload of the live telemetry endpoint: a mapping of
// device_id to its latest sample plus the server-side timestamp of the poll.
type LiveResponse struct {
	Timestamp float64                 `json:"timestamp"`
	Devices   map[string]DeviceSample `json:"devices"`
}

// ControlAction is a device command accepted by the gateway.
type ControlAction string

const (
	ActionOn  ControlAction = "on"
	ActionOff ControlAction = "off"
)

// Valid reports whether the action is one the gateway accepts.
func (a ControlAction) Valid() bool {
	return a == ActionOn || a == ActionOff
}

// ControlResponse is the gateway's reply to a device control command.
type ControlResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	DeviceStatus string `json:"device_status,omitempty"`
}
