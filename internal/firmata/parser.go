package firmata

import (
	"errors"
	"fmt"
)

type frameKey struct {
	kind    FrameKind
	command Command
}

type decodeFunc func(f Frame) (Event, error)

// decoders maps every supported frame to its event. Frames without an
// entry are ignored.
var decoders = map[frameKey]decodeFunc{
	{KindChannel, ReportVersion}:  bare(EventReportVersion),
	{KindChannel, SystemReset}:    bare(EventSystemReset),
	{KindChannel, AnalogMessage}:  pinValue(EventAnalogMessage),
	{KindChannel, DigitalMessage}: pinValue(EventDigitalMessage),
	{KindChannel, ReportAnalog}:   pinToggle(EventReportAnalog),
	{KindChannel, ReportDigital}:  pinToggle(EventReportDigital),
	{KindChannel, SetPinMode}:     decodeSetPinMode,

	{KindSysex, SysexReportFirmware}:     bare(EventReportFirmware),
	{KindSysex, SysexCapabilityQuery}:    bare(EventCapabilityQuery),
	{KindSysex, SysexAnalogMappingQuery}: bare(EventAnalogMappingQuery),
	{KindSysex, SysexStringData}:         decodeStringData,
}

func bare(name EventName) decodeFunc {
	return func(Frame) (Event, error) {
		return Event{Name: name}, nil
	}
}

func pinValue(name EventName) decodeFunc {
	return func(f Frame) (Event, error) {
		v, err := DecodeValue(f.Data)
		if err != nil {
			return Event{}, err
		}
		return Event{Name: name, Pin: f.Channel, Value: v}, nil
	}
}

func pinToggle(name EventName) decodeFunc {
	return func(f Frame) (Event, error) {
		if len(f.Data) < 1 {
			return Event{}, ErrTruncatedPayload
		}
		return Event{Name: name, Pin: f.Channel, Value: uint16(f.Data[0])}, nil
	}
}

func decodeSetPinMode(f Frame) (Event, error) {
	if len(f.Data) < 2 {
		return Event{}, ErrTruncatedPayload
	}
	return Event{Name: EventSetPinMode, Pin: f.Data[0], Mode: f.Data[1]}, nil
}

func decodeStringData(f Frame) (Event, error) {
	s, err := DecodeString(f.Data)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: EventStringData, Text: s}, nil
}

type subscriber struct {
	id uint64
	h  Handler
}

// Parser decodes a host command stream into events. It is an io.Writer:
// bytes written to it are tokenized, decoded and dispatched to the
// registered handlers before Write returns. A Parser belongs to a single
// stream and is not safe for concurrent use.
type Parser struct {
	tokenizer *Tokenizer
	handlers  map[EventName][]subscriber
	nextID    uint64
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxSysexSize overrides DefaultMaxSysexSize.
func WithMaxSysexSize(n int) Option {
	return func(p *Parser) {
		p.tokenizer = NewTokenizer(n)
	}
}

// NewParser constructor.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		tokenizer: NewTokenizer(DefaultMaxSysexSize),
		handlers:  make(map[EventName][]subscriber),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// On registers h for events named name. Handlers run in registration order.
func (p *Parser) On(name EventName, h Handler) Subscription {
	p.nextID++
	p.handlers[name] = append(p.handlers[name], subscriber{id: p.nextID, h: h})
	return Subscription{name: name, id: p.nextID}
}

// Off removes a handler registered with On. Removing an unknown or already
// removed subscription is a no-op.
func (p *Parser) Off(s Subscription) {
	subs := p.handlers[s.name]
	for i, sub := range subs {
		if sub.id != s.id {
			continue
		}
		rest := make([]subscriber, 0, len(subs)-1)
		rest = append(rest, subs[:i]...)
		rest = append(rest, subs[i+1:]...)
		if len(rest) == 0 {
			delete(p.handlers, s.name)
		} else {
			p.handlers[s.name] = rest
		}
		return
	}
}

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	p.tokenizer.Reset()
}

// Write feeds raw bytes from the transport. It always consumes all of b.
// Incomplete frames are kept for the next call and are not errors; frames
// that cannot be decoded are reported in the returned error while the rest
// of b is still processed.
func (p *Parser) Write(b []byte) (int, error) {
	var errs []error
	p.tokenizer.Feed(b, func(f Frame, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		if err := p.dispatch(f); err != nil {
			errs = append(errs, err)
		}
	})
	return len(b), errors.Join(errs...)
}

func (p *Parser) dispatch(f Frame) error {
	decode, ok := decoders[frameKey{f.Kind, f.Command}]
	if !ok {
		return nil
	}
	ev, err := decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", f.Command, err)
	}
	p.emit(ev)
	return nil
}

func (p *Parser) emit(ev Event) {
	// Handlers may call Off; the slice is replaced rather than modified in
	// place, so this iteration is unaffected.
	for _, sub := range p.handlers[ev.Name] {
		sub.h(ev)
	}
}
