package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

const (
	RequiredChannels   = 1
	RequiredBitDepth   = 16
	RequiredSampleRate = 16000
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

var (
	ErrFormatMismatch = errors.New("audio file must be mono PCM 16-bit 16kHz")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

type Format struct {
	Channels   int
	BitDepth   int
	SampleRate int
	Encoding   int
}

func (f Format) FrameSize() int {
	return f.Channels * f.BitDepth / 8
}

func (f Format) matches() bool {
	if f.Encoding != formatPCM && f.Encoding != formatExtensible {
		return false
	}
	return f.Channels == RequiredChannels && f.BitDepth == RequiredBitDepth && f.SampleRate == RequiredSampleRate
}

// WAVReader yields the raw PCM payload of a WAV file in whole-frame chunks.
type WAVReader struct {
	f      *os.File
	format Format
	data   io.Reader
	size   int64
}

// OpenWAV opens path, parses the container headers, and positions the reader
// at the start of the PCM data. A format other than mono 16-bit 16 kHz PCM
// yields an error wrapping ErrFormatMismatch.
func OpenWAV(path string) (*WAVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}

	r, err := newWAVReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

func newWAVReader(f *os.File) (*WAVReader, error) {
	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return nil, ErrInvalidWAV
	}

	format := Format{
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		SampleRate: int(dec.SampleRate),
		Encoding:   int(dec.WavAudioFormat),
	}
	if !format.matches() {
		return nil, fmt.Errorf("%w: got %d channel(s), %d-bit, %d Hz, encoding %d",
			ErrFormatMismatch, format.Channels, format.BitDepth, format.SampleRate, format.Encoding)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: locate data chunk: %v", ErrInvalidWAV, err)
	}
	if dec.PCMChunk == nil {
		return nil, fmt.Errorf("%w: missing data chunk", ErrInvalidWAV)
	}

	size := int64(dec.PCMChunk.Size)
	return &WAVReader{
		f:      f,
		format: format,
		data:   io.LimitReader(dec.PCMChunk, size),
		size:   size,
	}, nil
}

func (r *WAVReader) Format() Format {
	return r.format
}

// DataSize is the declared byte length of the PCM payload.
func (r *WAVReader) DataSize() int64 {
	return r.size
}

// ReadFrames fills buf with up to frames whole frames. A zero-length result
// with a nil error means the stream is exhausted; the final chunk may be
// shorter than requested.
func (r *WAVReader) ReadFrames(buf []byte, frames int) (int, error) {
	want := frames * r.format.FrameSize()
	if want > len(buf) {
		return 0, fmt.Errorf("buffer of %d bytes cannot hold %d frames", len(buf), frames)
	}

	n, err := io.ReadFull(r.data, buf[:want])
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n, nil
	default:
		return n, fmt.Errorf("read wav data: %w", err)
	}
}

func (r *WAVReader) Close() error {
	return r.f.Close()
}
