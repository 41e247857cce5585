package bridge

import "firmata2mqtt/internal/firmata"

// EventPublisher receives every decoded host command.
type EventPublisher interface {
	Publish(ev firmata.Event)
}

// PinValue is a pin level written by the host.
type PinValue struct {
	Pin    uint8  // Pin - номер вывода.
	Value  uint16 // Value - 14 бит для аналоговых, 0/1 для цифровых.
	Analog bool   // Analog - значение из analogMessage.
}

// CommandKind selects the report sent to the host.
type CommandKind string

const (
	CommandAnalog  CommandKind = "analog"
	CommandDigital CommandKind = "digital"
	CommandString  CommandKind = "string"
)

// Command is a board-side report requested by the application, e.g. from
// an MQTT command topic.
type Command struct {
	Kind  CommandKind
	Pin   uint8  // Pin - аналоговый вывод или номер порта для digital.
	Value uint16 // Value - значение или битовая маска порта.
	Text  string // Text - строка для CommandString.
}

// Sinks are the optional consumers of the bridge's output.
type Sinks struct {
	Events EventPublisher
	Pins   chan<- PinValue
}

// State is a copy of what the host has configured on the board.
type State struct {
	Modes            map[uint8]uint8
	AnalogReporting  map[uint8]bool
	DigitalReporting map[uint8]bool
}
