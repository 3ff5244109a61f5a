package rig

import "fmt"

// Mode selects how the turntable spaces its shots.
type Mode string

const (
	FixedAngle        Mode = "fixed_angle"
	FixedTimeInterval Mode = "fixed_time_interval"
)

// CameraState is the rig's shooting state. Values received from the rig are
// stored verbatim, so a CameraState may hold text outside the two constants.
type CameraState string

const (
	Idle     CameraState = "idle"
	Shooting CameraState = "shooting"
)

// Accepted input domains.
const (
	MinNumOfPhoto   = 1
	MaxNumOfPhoto   = 200
	MinAngle        = 1
	MaxAngle        = 45
	MinTimeInterval = 0.2
	MaxTimeInterval = 20.0
)

// RemoteState mirrors the rig's characteristic values.
type RemoteState struct {
	Mode              Mode        `json:"mode"`
	NumOfPhoto        int         `json:"numOfPhoto"`
	Angle             int         `json:"angle"`
	TimeInterval      float64     `json:"timeInterval"`
	CameraState       CameraState `json:"cameraState"`
	ShouldTakePhoto   bool        `json:"shouldTakePhoto"`
	ConnectionCounter uint64      `json:"connectionCounter"`
}

// DefaultState is the state a fresh session starts from.
func DefaultState() RemoteState {
	return RemoteState{
		Mode:         FixedAngle,
		NumOfPhoto:   5,
		Angle:        3,
		TimeInterval: 1.5,
		CameraState:  Idle,
	}
}

// Phase is the connection state machine's position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseScanning
	PhaseConnecting
	PhaseDiscoveringServices
	PhaseDiscoveringCharacteristics
	PhaseReady
	PhaseDisconnected
	PhaseMissing
)

var phaseNames = [...]string{
	PhaseIdle:                       "idle",
	PhaseScanning:                   "scanning",
	PhaseConnecting:                 "connecting",
	PhaseDiscoveringServices:        "discovering_services",
	PhaseDiscoveringCharacteristics: "discovering_characteristics",
	PhaseReady:                      "ready",
	PhaseDisconnected:               "disconnected",
	PhaseMissing:                    "missing",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("rig: unknown phase %q", text)
}

// Snapshot is everything a presentation layer may read. Snapshots are
// copied out whole, but successive reads are only eventually consistent:
// fields may change between two Snapshot calls.
type Snapshot struct {
	State             RemoteState `json:"state"`
	Phase             Phase       `json:"phase"`
	IsWaiting         bool        `json:"isWaiting"`
	PeripheralMissing bool        `json:"peripheralMissing"`
	SignalStrength    int         `json:"signalStrength"`
	HasSignal         bool        `json:"hasSignal"`
	Shutter           bool        `json:"shutter"`
	Peripheral        string      `json:"peripheral,omitempty"`
}
