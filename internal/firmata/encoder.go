package firmata

// PinCapability describes one board pin for capability and analog mapping
// reports. Zero resolutions mean the mode is not supported.
type PinCapability struct {
	Digital bool
	Analog  uint8 // Analog input resolution in bits.
	PWM     uint8 // PWM resolution in bits.
	Servo   uint8 // Servo resolution in bits.
	I2C     bool

	// AnalogChannel is the analog input index reported in the analog
	// mapping. Only used when Analog is set.
	AnalogChannel *uint8
}

// FirmataVersion builds the protocol version report.
func FirmataVersion() []byte {
	return []byte{byte(ReportVersion), ProtocolMajor, ProtocolMinor}
}

// FirmwareVersion builds the sysex firmware report: version and name.
func FirmwareVersion() []byte {
	name, err := EncodeString(FirmwareName)
	if err != nil {
		panic(err)
	}
	out := make([]byte, 0, 5+len(name))
	out = append(out, byte(StartSysex), byte(SysexReportFirmware), FirmwareMajor, FirmwareMinor)
	out = append(out, name...)
	return append(out, byte(EndSysex))
}

// CapabilityResponse builds the capability report. Modes of a pin are
// always listed as digital, analog, pwm, servo, i2c.
func CapabilityResponse(pins []PinCapability) []byte {
	out := []byte{byte(StartSysex), byte(SysexCapabilityResponse)}
	for _, pin := range pins {
		if pin.Digital {
			out = append(out, PinInput, 1, PinOutput, 1)
		}
		if pin.Analog != 0 {
			out = append(out, PinAnalog, pin.Analog&dataMask)
		}
		if pin.PWM != 0 {
			out = append(out, PinPWM, pin.PWM&dataMask)
		}
		if pin.Servo != 0 {
			out = append(out, PinServo, pin.Servo&dataMask)
		}
		if pin.I2C {
			out = append(out, PinI2C, 1)
		}
		out = append(out, terminator)
	}
	return append(out, byte(EndSysex))
}

// AnalogMappingResponse builds the analog mapping report, one byte per pin:
// its analog channel, or 127 when the pin is not a mapped analog input.
func AnalogMappingResponse(pins []PinCapability) []byte {
	out := make([]byte, 0, len(pins)+3)
	out = append(out, byte(StartSysex), byte(SysexAnalogMappingResponse))
	for _, pin := range pins {
		if pin.Analog != 0 && pin.AnalogChannel != nil {
			out = append(out, *pin.AnalogChannel&dataMask)
		} else {
			out = append(out, terminator)
		}
	}
	return append(out, byte(EndSysex))
}

// AnalogReport builds an analogMessage carrying a pin value. Only pins 0-15
// can be addressed.
func AnalogReport(pin uint8, value uint16) []byte {
	return append([]byte{byte(AnalogMessage) | pin&channelMask}, EncodeValue(value)...)
}

// DigitalReport builds a digitalMessage carrying the pin states of an 8-pin
// port as a bit mask.
func DigitalReport(port uint8, mask uint16) []byte {
	return append([]byte{byte(DigitalMessage) | port&channelMask}, EncodeValue(mask)...)
}

// StringData wraps text in a stringData sysex frame.
func StringData(text string) ([]byte, error) {
	payload, err := EncodeString(text)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(payload)+3)
	out = append(out, byte(StartSysex), byte(SysexStringData))
	out = append(out, payload...)
	return append(out, byte(EndSysex)), nil
}
