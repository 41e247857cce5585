// Package firmata implements the board side of the Firmata serial protocol:
// a resumable decoder for the host's command stream and builders for the
// board's responses.
package firmata

// Command is a Firmata command byte. Channel commands carry a pin or port
// number in the low nibble of the wire byte.
type Command byte

// Channel commands.
const (
	DigitalMessage Command = 0x90
	ReportAnalog   Command = 0xC0
	ReportDigital  Command = 0xD0
	AnalogMessage  Command = 0xE0
)

// Fixed commands.
const (
	StartSysex    Command = 0xF0
	SetPinMode    Command = 0xF4
	EndSysex      Command = 0xF7
	ReportVersion Command = 0xF9
	SystemReset   Command = 0xFF
)

// Sysex sub-commands, sent as the first byte inside a sysex frame.
const (
	SysexAnalogMappingQuery    Command = 0x69
	SysexAnalogMappingResponse Command = 0x6A
	SysexCapabilityQuery       Command = 0x6B
	SysexCapabilityResponse    Command = 0x6C
	SysexStringData            Command = 0x71
	SysexReportFirmware        Command = 0x79
)

// Pin modes used in capability reports and setPinMode.
const (
	PinInput  byte = 0x00
	PinOutput byte = 0x01
	PinAnalog byte = 0x02
	PinPWM    byte = 0x03
	PinServo  byte = 0x04
	PinShift  byte = 0x05
	PinI2C    byte = 0x06
)

const (
	ProtocolMajor = 2
	ProtocolMinor = 3

	FirmwareMajor = 0
	FirmwareMinor = 1
	FirmwareName  = "firmata-pi"
)

const (
	channelMask = 0x0F
	commandMask = 0xF0
	statusBit   = 0x80
	dataMask    = 0x7F

	// terminator ends a pin entry in capability and analog mapping reports.
	terminator = 0x7F
)

var commandNames = map[Command]string{
	DigitalMessage:             "digitalMessage",
	ReportAnalog:               "reportAnalog",
	ReportDigital:              "reportDigital",
	AnalogMessage:              "analogMessage",
	StartSysex:                 "startSysex",
	SetPinMode:                 "setPinMode",
	EndSysex:                   "endSysex",
	ReportVersion:              "reportVersion",
	SystemReset:                "systemReset",
	SysexAnalogMappingQuery:    "analogMappingQuery",
	SysexAnalogMappingResponse: "analogMappingResponse",
	SysexCapabilityQuery:       "capabilityQuery",
	SysexCapabilityResponse:    "capabilityResponse",
	SysexStringData:            "stringData",
	SysexReportFirmware:        "reportFirmware",
}

func (c Command) String() string {
	if v, ok := commandNames[c]; ok {
		return v
	}
	return "unknown"
}

// dataLength is the number of data bytes following each non-sysex command.
var dataLength = map[Command]int{
	DigitalMessage: 2,
	AnalogMessage:  2,
	ReportAnalog:   1,
	ReportDigital:  1,
	SetPinMode:     2,
	ReportVersion:  0,
	SystemReset:    0,
}

// IsChannel reports whether c is one of the channel command bases.
func (c Command) IsChannel() bool {
	switch c {
	case DigitalMessage, ReportAnalog, ReportDigital, AnalogMessage:
		return true
	}
	return false
}

// splitStatus identifies the command and channel of a status byte. Fixed
// commands always report channel 0.
func splitStatus(b byte) (Command, uint8, bool) {
	if cmd := Command(b & commandMask); cmd.IsChannel() {
		return cmd, b & channelMask, true
	}
	if _, ok := dataLength[Command(b)]; ok {
		return Command(b), 0, true
	}
	return 0, 0, false
}
