// Package bridge serves a Firmata host over one serial link: it answers
// the host's queries and hands decoded commands to the application.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"firmata2mqtt/internal/firmata"
	"firmata2mqtt/internal/logger"
)

var (
	ErrReportingDisabled = errors.New("host has not enabled reporting")
	ErrPinRange          = errors.New("pin out of range")
	ErrUnknownCommand    = errors.New("unknown command kind")
)

const (
	readBufferSize = 256
	portPins       = 8
	maxChannel     = 15
)

// Bridge connects one Firmata host to the application.
type Bridge struct {
	log    *logger.Log
	port   io.ReadWriter
	parser *firmata.Parser
	pins   []firmata.PinCapability
	sinks  Sinks

	writeMutex sync.Mutex

	stateMutex sync.Mutex
	state      State

	doneChan chan struct{}
}

// NewBridge конструктор. The parser must not be fed by anyone else.
func NewBridge(log logger.Logger, port io.ReadWriter, parser *firmata.Parser, pins []firmata.PinCapability, sinks Sinks) *Bridge {
	b := &Bridge{
		log:      log.Module("bridge"),
		port:     port,
		parser:   parser,
		pins:     pins,
		sinks:    sinks,
		state:    newState(),
		doneChan: make(chan struct{}),
	}

	parser.On(firmata.EventReportVersion, b.reply(firmata.FirmataVersion))
	parser.On(firmata.EventReportFirmware, b.reply(firmata.FirmwareVersion))
	parser.On(firmata.EventCapabilityQuery, b.reply(func() []byte { return firmata.CapabilityResponse(b.pins) }))
	parser.On(firmata.EventAnalogMappingQuery, b.reply(func() []byte { return firmata.AnalogMappingResponse(b.pins) }))

	parser.On(firmata.EventSetPinMode, b.trackState)
	parser.On(firmata.EventReportAnalog, b.trackState)
	parser.On(firmata.EventReportDigital, b.trackState)
	parser.On(firmata.EventSystemReset, b.trackState)

	parser.On(firmata.EventAnalogMessage, b.forwardPins)
	parser.On(firmata.EventDigitalMessage, b.forwardPins)

	if sinks.Events != nil {
		for _, name := range firmata.Events {
			parser.On(name, sinks.Events.Publish)
		}
	}

	return b
}

func newState() State {
	return State{
		Modes:            map[uint8]uint8{},
		AnalogReporting:  map[uint8]bool{},
		DigitalReporting: map[uint8]bool{},
	}
}

// Start runs the read loop and executes commands from cmdCh until ctx is done.
func (b *Bridge) Start(ctx context.Context, cmdCh <-chan Command) {
	go b.readLoop(ctx)
	go b.commandLoop(ctx, cmdCh)
}

// Done is closed when the read loop has exited.
func (b *Bridge) Done() <-chan struct{} {
	return b.doneChan
}

// Feed decodes bytes received from the host. Only the read loop calls it
// once the bridge is started.
func (b *Bridge) Feed(data []byte) {
	if _, err := b.parser.Write(data); err != nil {
		b.log.Warnf("dropped frame: %v", err)
	}
}

func (b *Bridge) readLoop(ctx context.Context) {
	defer close(b.doneChan)

	buffer := make([]byte, readBufferSize)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := b.port.Read(buffer)
		if n > 0 {
			b.log.Tracef("rx % x", buffer[:n])
			b.Feed(buffer[:n])
		}
		if err == nil {
			continue
		}
		if errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
			b.log.Info("port closed")
			return
		}
		// A serial read timeout surfaces as io.EOF.
		if !errors.Is(err, io.EOF) {
			b.log.Errorf("read error: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (b *Bridge) commandLoop(ctx context.Context, cmdCh <-chan Command) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-cmdCh:
			if !ok {
				return
			}
			if err := b.Send(cmd); err != nil {
				b.log.With(logger.Fields{"kind": cmd.Kind, "pin": cmd.Pin}).Warnf("command not sent: %v", err)
			}
		}
	}
}

// Send encodes cmd and writes it to the host. Analog and digital reports
// are only sent for pins and ports the host asked to be reported.
func (b *Bridge) Send(cmd Command) error {
	var msg []byte
	switch cmd.Kind {
	case CommandAnalog, CommandDigital:
		if cmd.Pin > maxChannel {
			return fmt.Errorf("%w: %d", ErrPinRange, cmd.Pin)
		}
		b.stateMutex.Lock()
		enabled := b.state.AnalogReporting[cmd.Pin]
		if cmd.Kind == CommandDigital {
			enabled = b.state.DigitalReporting[cmd.Pin]
		}
		b.stateMutex.Unlock()
		if !enabled {
			return fmt.Errorf("%w: %s %d", ErrReportingDisabled, cmd.Kind, cmd.Pin)
		}
		if cmd.Kind == CommandAnalog {
			msg = firmata.AnalogReport(cmd.Pin, cmd.Value)
		} else {
			msg = firmata.DigitalReport(cmd.Pin, cmd.Value)
		}
	case CommandString:
		var err error
		if msg, err = firmata.StringData(cmd.Text); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
	}
	return b.writeMessage(msg)
}

// Snapshot returns a copy of the pin modes and reporting flags set by the host.
func (b *Bridge) Snapshot() State {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()

	s := newState()
	for k, v := range b.state.Modes {
		s.Modes[k] = v
	}
	for k, v := range b.state.AnalogReporting {
		s.AnalogReporting[k] = v
	}
	for k, v := range b.state.DigitalReporting {
		s.DigitalReporting[k] = v
	}
	return s
}

func (b *Bridge) reply(build func() []byte) firmata.Handler {
	return func(ev firmata.Event) {
		if err := b.writeMessage(build()); err != nil {
			b.log.Errorf("%s reply failed: %v", ev.Name, err)
			return
		}
		b.log.Debugf("answered %s", ev.Name)
	}
}

func (b *Bridge) trackState(ev firmata.Event) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()

	switch ev.Name {
	case firmata.EventSetPinMode:
		b.state.Modes[ev.Pin] = ev.Mode
	case firmata.EventReportAnalog:
		b.state.AnalogReporting[ev.Pin] = ev.Value != 0
	case firmata.EventReportDigital:
		b.state.DigitalReporting[ev.Pin] = ev.Value != 0
	case firmata.EventSystemReset:
		b.state = newState()
		b.log.Info("host requested system reset")
	}
}

func (b *Bridge) forwardPins(ev firmata.Event) {
	if b.sinks.Pins == nil {
		return
	}
	if ev.Name == firmata.EventAnalogMessage {
		b.pushPin(PinValue{Pin: ev.Pin, Value: ev.Value, Analog: true})
		return
	}
	// digitalMessage carries one bit per pin of the 8-pin port.
	for bit := uint8(0); bit < portPins; bit++ {
		b.pushPin(PinValue{Pin: ev.Pin*portPins + bit, Value: ev.Value >> bit & 1})
	}
}

func (b *Bridge) pushPin(v PinValue) {
	select {
	case b.sinks.Pins <- v:
	default:
		b.log.Warnf("pin channel full, dropped pin %d", v.Pin)
	}
}

// writeMessage sends a complete message to the host
func (b *Bridge) writeMessage(msg []byte) error {
	b.writeMutex.Lock()
	defer b.writeMutex.Unlock()

	n, err := b.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}
	b.log.Tracef("tx % x", msg)
	return nil
}
