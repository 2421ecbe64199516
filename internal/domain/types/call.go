package types

import "fmt"

// CallType selects which local media a call acquires.
type CallType string

const (
	CallTypeAudio CallType = "audio"
	CallTypeVideo CallType = "video"
)

// Valid reports whether t is a known call type.
func (t CallType) Valid() bool {
	return t == CallTypeAudio || t == CallTypeVideo
}

// ParseCallType converts s into a CallType.
func ParseCallType(s string) (CallType, error) {
	t := CallType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown call type %q", s)
	}
	return t, nil
}
