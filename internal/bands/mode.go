package bands

import (
	"fmt"
	"strings"
)

// Mode is the modulation typically found in a band
type Mode int

const (
	ModeNone Mode = iota // no mode recorded
	ModeAM
	ModeWFM
	ModeNFM
	ModeBPSK
	ModeDigital
	ModeAPT
	ModeUSB
	ModeLSB
	ModeCW
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return ""
	case ModeAM:
		return "AM"
	case ModeWFM:
		return "WFM"
	case ModeNFM:
		return "NFM"
	case ModeBPSK:
		return "BPSK"
	case ModeDigital:
		return "DIGITAL"
	case ModeAPT:
		return "APT"
	case ModeUSB:
		return "USB"
	case ModeLSB:
		return "LSB"
	case ModeCW:
		return "CW"
	default:
		return "Unknown"
	}
}

// MarshalYAML implements yaml.Marshaler for Mode
func (m Mode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Mode
func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	mode, err := ModeFromString(s)
	if err != nil {
		return err
	}

	*m = mode
	return nil
}

// ModeFromString converts a string to a Mode
func ModeFromString(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return ModeNone, nil
	case "AM":
		return ModeAM, nil
	case "WFM", "FM":
		return ModeWFM, nil
	case "NFM":
		return ModeNFM, nil
	case "BPSK":
		return ModeBPSK, nil
	case "DIGITAL":
		return ModeDigital, nil
	case "APT":
		return ModeAPT, nil
	case "USB":
		return ModeUSB, nil
	case "LSB":
		return ModeLSB, nil
	case "CW":
		return ModeCW, nil
	default:
		return 0, fmt.Errorf("unknown band mode: %s", s)
	}
}
