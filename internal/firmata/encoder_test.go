package firmata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unwrapSysex(t *testing.T, data []byte) []byte {
	t.Helper()
	require.GreaterOrEqual(t, len(data), 2)
	require.Equal(t, byte(StartSysex), data[0])
	require.Equal(t, byte(EndSysex), data[len(data)-1])
	return data[1 : len(data)-1]
}

func channel(n uint8) *uint8 {
	return &n
}

func TestFirmataVersion(t *testing.T) {
	assert.Equal(t, []byte{0xF9, 2, 3}, FirmataVersion())
}

func TestFirmwareVersion(t *testing.T) {
	body := unwrapSysex(t, FirmwareVersion())

	assert.Equal(t, []byte{byte(SysexReportFirmware), FirmwareMajor, FirmwareMinor}, body[:3])

	name, err := DecodeString(body[3:])
	require.NoError(t, err)
	assert.Equal(t, "firmata-pi", name)
}

func TestCapabilityResponse(t *testing.T) {
	testCases := []struct {
		name     string
		pins     []PinCapability
		expected []byte
	}{
		{
			name: "all",
			pins: []PinCapability{{Digital: true, Analog: 10, PWM: 8, Servo: 14, I2C: true}},
			expected: []byte{
				PinInput, 1, PinOutput, 1,
				PinAnalog, 10,
				PinPWM, 8,
				PinServo, 14,
				PinI2C, 1,
				127,
			},
		},
		{
			name:     "digital",
			pins:     []PinCapability{{Digital: true}},
			expected: []byte{PinInput, 1, PinOutput, 1, 127},
		},
		{
			name:     "analog",
			pins:     []PinCapability{{Analog: 10}},
			expected: []byte{PinAnalog, 10, 127},
		},
		{
			name:     "pwm",
			pins:     []PinCapability{{PWM: 8}},
			expected: []byte{PinPWM, 8, 127},
		},
		{
			name:     "servo",
			pins:     []PinCapability{{Servo: 14}},
			expected: []byte{PinServo, 14, 127},
		},
		{
			name:     "i2c",
			pins:     []PinCapability{{I2C: true}},
			expected: []byte{PinI2C, 1, 127},
		},
		{
			name:     "several pins",
			pins:     []PinCapability{{Digital: true, PWM: 8}, {}, {Analog: 10}},
			expected: []byte{PinInput, 1, PinOutput, 1, PinPWM, 8, 127, 127, PinAnalog, 10, 127},
		},
		{
			name:     "no pins",
			expected: []byte{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body := unwrapSysex(t, CapabilityResponse(tc.pins))
			assert.Equal(t, byte(SysexCapabilityResponse), body[0])
			assert.Equal(t, tc.expected, body[1:])
		})
	}
}

func TestAnalogMappingResponse(t *testing.T) {
	pins := []PinCapability{
		{Analog: 10, AnalogChannel: channel(0)},
		{AnalogChannel: channel(3)}, // a channel without analog resolution is not mapped
		{Digital: true},
		{Analog: 10, AnalogChannel: channel(1)},
		{Analog: 10},
	}

	expected := []byte{
		byte(StartSysex),
		byte(SysexAnalogMappingResponse),
		0,
		127,
		127,
		1,
		127,
		byte(EndSysex),
	}
	assert.Equal(t, expected, AnalogMappingResponse(pins))
}

func TestChannelReports(t *testing.T) {
	assert.Equal(t, []byte{0xE3, 0x75, 0x01}, AnalogReport(3, 245))
	assert.Equal(t, []byte{0x91, 0x7F, 0x01}, DigitalReport(1, 0xFF))
}

func TestStringDataRoundTrip(t *testing.T) {
	data, err := StringData("hello")
	require.NoError(t, err)

	p := NewParser()
	s := listen(p, EventStringData)
	writeAll(t, p, data)
	assert.Equal(t, []Event{{Name: EventStringData, Text: "hello"}}, s.events)

	_, err = StringData("😀")
	assert.ErrorIs(t, err, ErrCharacterRange)
}

func TestEncodedReportsDecode(t *testing.T) {
	p := NewParser()
	var got []Event
	p.On(EventAnalogMessage, func(ev Event) { got = append(got, ev) })
	p.On(EventDigitalMessage, func(ev Event) { got = append(got, ev) })

	writeAll(t, p, AnalogReport(5, 1023), DigitalReport(0, 0x81))
	assert.Equal(t, []Event{
		{Name: EventAnalogMessage, Pin: 5, Value: 1023},
		{Name: EventDigitalMessage, Pin: 0, Value: 0x81},
	}, got)
}
