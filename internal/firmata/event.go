package firmata

import "fmt"

// EventName identifies a decoded host command.
type EventName string

const (
	EventReportVersion      EventName = "reportVersion"
	EventAnalogMessage      EventName = "analogMessage"
	EventDigitalMessage     EventName = "digitalMessage"
	EventSetPinMode         EventName = "setPinMode"
	EventSystemReset        EventName = "systemReset"
	EventReportAnalog       EventName = "reportAnalog"
	EventReportDigital      EventName = "reportDigital"
	EventReportFirmware     EventName = "reportFirmware"
	EventStringData         EventName = "stringData"
	EventCapabilityQuery    EventName = "capabilityQuery"
	EventAnalogMappingQuery EventName = "analogMappingQuery"
)

// Events lists every event a Parser can raise.
var Events = []EventName{
	EventReportVersion,
	EventAnalogMessage,
	EventDigitalMessage,
	EventSetPinMode,
	EventSystemReset,
	EventReportAnalog,
	EventReportDigital,
	EventReportFirmware,
	EventStringData,
	EventCapabilityQuery,
	EventAnalogMappingQuery,
}

// Event is a decoded command. Only the fields relevant to Name are set:
// Pin and Value for analog/digital messages and report toggles, Pin and
// Mode for setPinMode, Text for stringData.
type Event struct {
	Name  EventName `json:"event"`
	Pin   uint8     `json:"pin"`
	Value uint16    `json:"value"`
	Mode  uint8     `json:"mode"`
	Text  string    `json:"text,omitempty"`
}

func (e Event) String() string {
	switch e.Name {
	case EventAnalogMessage, EventDigitalMessage, EventReportAnalog, EventReportDigital:
		return fmt.Sprintf("%s(pin=%d, value=%d)", e.Name, e.Pin, e.Value)
	case EventSetPinMode:
		return fmt.Sprintf("%s(pin=%d, mode=%d)", e.Name, e.Pin, e.Mode)
	case EventStringData:
		return fmt.Sprintf("%s(%q)", e.Name, e.Text)
	}
	return string(e.Name)
}

// Handler receives events synchronously from Parser.Write.
type Handler func(Event)

// Subscription identifies a registered handler for Parser.Off.
type Subscription struct {
	name EventName
	id   uint64
}
