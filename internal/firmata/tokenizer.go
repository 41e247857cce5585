package firmata

// DefaultMaxSysexSize bounds the bytes buffered for one unterminated sysex
// frame, sub-command included.
const DefaultMaxSysexSize = 1024

// FrameKind separates the two framing families sharing the stream.
type FrameKind uint8

const (
	KindChannel FrameKind = iota
	KindSysex
)

func (k FrameKind) String() string {
	if k == KindSysex {
		return "sysex"
	}
	return "channel"
}

// Frame is one complete message cut from the stream. Data is only valid
// until the next call to Feed.
type Frame struct {
	Kind    FrameKind
	Command Command
	Channel uint8
	Data    []byte
}

type tokenizerState uint8

const (
	stateIdle tokenizerState = iota
	stateChannel
	stateSysex
	stateDiscard
)

// Tokenizer cuts a byte stream into frames. It keeps the partial frame
// between calls, so frames may arrive split across any number of writes.
// A Tokenizer must not be shared between streams.
type Tokenizer struct {
	maxSysex int

	state   tokenizerState
	command Command
	channel uint8
	want    int
	buf     []byte
}

// NewTokenizer returns a tokenizer that gives up on sysex frames longer
// than maxSysex bytes. A non-positive maxSysex selects DefaultMaxSysexSize.
func NewTokenizer(maxSysex int) *Tokenizer {
	if maxSysex <= 0 {
		maxSysex = DefaultMaxSysexSize
	}
	return &Tokenizer{
		maxSysex: maxSysex,
		buf:      make([]byte, 0, 64),
	}
}

// Reset drops any partial frame.
func (t *Tokenizer) Reset() {
	t.state = stateIdle
	t.command = 0
	t.channel = 0
	t.want = 0
	t.buf = t.buf[:0]
}

// Pending reports whether a partial frame is buffered.
func (t *Tokenizer) Pending() bool {
	return t.state != stateIdle
}

// Feed consumes p, calling emit for every completed frame. When a sysex
// frame overflows, emit is called with ErrOversizedFrame, the buffered bytes
// are dropped and the rest of that frame is skipped up to its EndSysex.
func (t *Tokenizer) Feed(p []byte, emit func(Frame, error)) {
	for _, b := range p {
		switch t.state {
		case stateSysex:
			t.feedSysex(b, emit)
		case stateDiscard:
			if Command(b) == EndSysex {
				t.Reset()
			}
		case stateChannel:
			if b&statusBit != 0 {
				// A new status byte abandons the unfinished message.
				t.Reset()
				t.start(b, emit)
				continue
			}
			t.buf = append(t.buf, b)
			if len(t.buf) == t.want {
				t.emitChannel(emit)
			}
		default:
			t.start(b, emit)
		}
	}
}

func (t *Tokenizer) start(b byte, emit func(Frame, error)) {
	if Command(b) == StartSysex {
		t.state = stateSysex
		t.buf = t.buf[:0]
		return
	}
	cmd, ch, ok := splitStatus(b)
	if !ok {
		return
	}
	t.command = cmd
	t.channel = ch
	t.want = dataLength[cmd]
	t.buf = t.buf[:0]
	if t.want == 0 {
		t.emitChannel(emit)
		return
	}
	t.state = stateChannel
}

func (t *Tokenizer) emitChannel(emit func(Frame, error)) {
	f := Frame{Kind: KindChannel, Command: t.command, Channel: t.channel, Data: t.buf}
	t.state = stateIdle
	emit(f, nil)
	t.buf = t.buf[:0]
}

func (t *Tokenizer) feedSysex(b byte, emit func(Frame, error)) {
	if Command(b) != EndSysex {
		if len(t.buf) >= t.maxSysex {
			t.Reset()
			t.state = stateDiscard
			emit(Frame{Kind: KindSysex}, ErrOversizedFrame)
			return
		}
		t.buf = append(t.buf, b)
		return
	}
	t.state = stateIdle
	if len(t.buf) == 0 {
		return
	}
	f := Frame{Kind: KindSysex, Command: Command(t.buf[0]), Data: t.buf[1:]}
	emit(f, nil)
	t.buf = t.buf[:0]
}
