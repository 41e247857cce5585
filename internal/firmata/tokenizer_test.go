package firmata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	frames []Frame
	errs   []error
}

func (r *recorded) emit(f Frame, err error) {
	if err != nil {
		r.errs = append(r.errs, err)
		return
	}
	f.Data = append([]byte(nil), f.Data...)
	r.frames = append(r.frames, f)
}

func feedAll(tk *Tokenizer, chunks ...[]byte) *recorded {
	r := &recorded{}
	for _, c := range chunks {
		tk.Feed(c, r.emit)
	}
	return r
}

func TestTokenizerChannelFrames(t *testing.T) {
	r := feedAll(NewTokenizer(0), []byte{
		0xE2, 0x75, 0x01, // analog pin 2
		0x93, 0x01, 0x00, // digital port 3
		0xC4, 0x01,       // report analog pin 4
		0xD5, 0x00,       // report digital port 5
		0xF4, 0x04, 0x01, // set pin mode
		0xF9,             // report version
		0xFF,             // system reset
	})

	require.Empty(t, r.errs)
	assert.Equal(t, []Frame{
		{Kind: KindChannel, Command: AnalogMessage, Channel: 2, Data: []byte{0x75, 0x01}},
		{Kind: KindChannel, Command: DigitalMessage, Channel: 3, Data: []byte{0x01, 0x00}},
		{Kind: KindChannel, Command: ReportAnalog, Channel: 4, Data: []byte{0x01}},
		{Kind: KindChannel, Command: ReportDigital, Channel: 5, Data: []byte{0x00}},
		{Kind: KindChannel, Command: SetPinMode, Data: []byte{0x04, 0x01}},
		{Kind: KindChannel, Command: ReportVersion},
		{Kind: KindChannel, Command: SystemReset},
	}, r.frames)
}

func TestTokenizerResumesAcrossWrites(t *testing.T) {
	tk := NewTokenizer(0)
	r := feedAll(tk, []byte{0x92}, []byte{0x75})
	assert.Empty(t, r.frames)
	assert.True(t, tk.Pending())

	tk.Feed([]byte{0x01}, r.emit)
	require.Len(t, r.frames, 1)
	assert.Equal(t, []byte{0x75, 0x01}, r.frames[0].Data)
	assert.False(t, tk.Pending())
}

func TestTokenizerSysexByteAtATime(t *testing.T) {
	stream := []byte{0xF0, 0x71, 0x41, 0x00, 0x42, 0x00, 0xF7}
	chunks := make([][]byte, len(stream))
	for i := range stream {
		chunks[i] = stream[i : i+1]
	}

	r := feedAll(NewTokenizer(0), chunks...)
	require.Len(t, r.frames, 1)
	assert.Equal(t, Frame{Kind: KindSysex, Command: SysexStringData, Data: []byte{0x41, 0x00, 0x42, 0x00}}, r.frames[0])
}

func TestTokenizerSysexKeepsStatusBytes(t *testing.T) {
	// Only EndSysex terminates a sysex frame.
	r := feedAll(NewTokenizer(0), []byte{0xF0, 0x10, 0x90, 0xF9, 0xF7})
	require.Len(t, r.frames, 1)
	assert.Equal(t, Command(0x10), r.frames[0].Command)
	assert.Equal(t, []byte{0x90, 0xF9}, r.frames[0].Data)
}

func TestTokenizerEmptySysex(t *testing.T) {
	r := feedAll(NewTokenizer(0), []byte{0xF0, 0xF7, 0xF9})
	require.Len(t, r.frames, 1)
	assert.Equal(t, ReportVersion, r.frames[0].Command)
}

func TestTokenizerDropsUnknownBytes(t *testing.T) {
	r := feedAll(NewTokenizer(0), []byte{0x05, 0x7F, 0xF1, 0xF8, 0xF7, 0xE1, 0x01, 0x00})
	require.Empty(t, r.errs)
	require.Len(t, r.frames, 1)
	assert.Equal(t, AnalogMessage, r.frames[0].Command)
	assert.Equal(t, uint8(1), r.frames[0].Channel)
}

func TestTokenizerStatusAbandonsPartialFrame(t *testing.T) {
	r := feedAll(NewTokenizer(0), []byte{0xE1, 0x05, 0xF9, 0x92, 0x01, 0x00})
	require.Len(t, r.frames, 2)
	assert.Equal(t, ReportVersion, r.frames[0].Command)
	assert.Equal(t, DigitalMessage, r.frames[1].Command)
}

func TestTokenizerOversizedSysex(t *testing.T) {
	tk := NewTokenizer(4)
	r := feedAll(tk, []byte{0xF0, 0x71, 0x01, 0x02, 0x03, 0x04, 0x05})
	require.Len(t, r.errs, 1)
	assert.ErrorIs(t, r.errs[0], ErrOversizedFrame)
	assert.Empty(t, r.frames)

	// The rest of the oversized frame is skipped, then decoding resumes.
	tk.Feed([]byte{0x06, 0xE0, 0x07, 0xF7, 0xF0, 0x79, 0xF7}, r.emit)
	require.Len(t, r.errs, 1)
	require.Len(t, r.frames, 1)
	assert.Equal(t, SysexReportFirmware, r.frames[0].Command)
}

func TestTokenizerSysexAtLimit(t *testing.T) {
	r := feedAll(NewTokenizer(4), []byte{0xF0, 0x71, 0x01, 0x02, 0x03, 0xF7})
	require.Empty(t, r.errs)
	require.Len(t, r.frames, 1)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, r.frames[0].Data)
}

func TestTokenizerReset(t *testing.T) {
	tk := NewTokenizer(0)
	r := feedAll(tk, []byte{0xF0, 0x71, 0x41})
	tk.Reset()
	assert.False(t, tk.Pending())

	tk.Feed([]byte{0x00, 0xF7, 0xF9}, r.emit)
	require.Len(t, r.frames, 1)
	assert.Equal(t, ReportVersion, r.frames[0].Command)
}
