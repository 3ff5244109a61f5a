// Package attr is the static catalog of GATT attributes exposed by the
// turntable rig: one service carrying seven UTF-8 text characteristics.
package attr

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Rig service and peripheral defaults.
const (
	ServiceUUID           = "187f0000-44ad-4f56-bee4-23b6cac3fe46"
	DefaultPeripheralName = "raspberrypi"
)

// ID identifies one rig attribute.
type ID int

const (
	Mode ID = iota
	NumOfPhoto
	TimeInterval
	Angle
	CameraState
	ShouldTakePhoto
	Connected

	// NumAttributes is the number of attributes in the catalog.
	NumAttributes
)

// Capability is a bit set of what the app may do with an attribute.
type Capability uint8

const (
	Write Capability = 1 << iota
	Notify
)

// Attribute describes one characteristic of the rig service.
type Attribute struct {
	ID   ID
	Name string
	UUID uuid.UUID
	Caps Capability
}

// Can reports whether the attribute has every capability in c.
func (a Attribute) Can(c Capability) bool {
	return a.Caps&c == c
}

var catalog = [NumAttributes]Attribute{
	{Mode, "mode", mustParse("187f0001-44ad-4f56-bee4-23b6cac3fe46"), Write},
	{NumOfPhoto, "numOfPhoto", mustParse("187f0002-44ad-4f56-bee4-23b6cac3fe46"), Write},
	{TimeInterval, "timeInterval", mustParse("187f0003-44ad-4f56-bee4-23b6cac3fe46"), Write},
	{Angle, "angle", mustParse("187f0004-44ad-4f56-bee4-23b6cac3fe46"), Write},
	{CameraState, "cameraState", mustParse("187f0005-44ad-4f56-bee4-23b6cac3fe46"), Write | Notify},
	{ShouldTakePhoto, "shouldTakePhoto", mustParse("187f0006-44ad-4f56-bee4-23b6cac3fe46"), Write | Notify},
	// The liveness channel is write-only by default; subscribing to it is a
	// deployment choice made by the caller.
	{Connected, "connected", mustParse("187f0007-44ad-4f56-bee4-23b6cac3fe46"), Write},
}

func mustParse(s string) uuid.UUID {
	u, err := uuid.Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Valid reports whether id names a catalog entry.
func (id ID) Valid() bool {
	return id >= 0 && id < NumAttributes
}

func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("attr(%d)", int(id))
	}
	return catalog[id].Name
}

// Get returns the catalog entry for id. It panics on an invalid id.
func Get(id ID) Attribute {
	return catalog[id]
}

// All returns the catalog in ID order.
func All() []Attribute {
	out := make([]Attribute, len(catalog))
	copy(out, catalog[:])
	return out
}

// UUIDs returns the characteristic UUIDs in ID order, as lowercase strings.
func UUIDs() []string {
	out := make([]string, 0, len(catalog))
	for _, a := range catalog {
		out = append(out, a.UUID.String())
	}
	return out
}

// Lookup maps a characteristic UUID string to its attribute ID.
// Matching ignores case and accepts the braced/urn forms uuid.Parse accepts.
func Lookup(s string) (ID, bool) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	for _, a := range catalog {
		if a.UUID == u {
			return a.ID, true
		}
	}
	return 0, false
}

// Normalize parses a UUID string and returns its canonical lowercase form.
func Normalize(s string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("attr: invalid UUID %q: %w", s, err)
	}
	return u.String(), nil
}
