package audio

import (
	"bytes"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/somnia/constant"
)

// resampleQuality is beep's interpolation window; 4 is its recommended default
const resampleQuality = 4

type sampleFormat int

const (
	formatUnknown sampleFormat = iota
	formatWAV
	formatMP3
	formatVorbis
)

// sniffFormat identifies the container from magic bytes, falling back to the URI extension
func sniffFormat(data []byte, uri string) sampleFormat {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return formatWAV
	case len(data) >= 4 && string(data[:4]) == "OggS":
		return formatVorbis
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return formatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return formatMP3
	}

	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	switch strings.ToLower(path.Ext(uri)) {
	case ".wav":
		return formatWAV
	case ".mp3":
		return formatMP3
	case ".ogg", ".oga":
		return formatVorbis
	}
	return formatUnknown
}

// decodeSample decodes data completely into a buffer at the engine rate
func decodeSample(uri string, data []byte, rate beep.SampleRate) (*DecodedSample, error) {
	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)

	switch sniffFormat(data, uri) {
	case formatWAV:
		stream, format, err = wav.Decode(bytes.NewReader(data))
	case formatMP3:
		stream, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	case formatVorbis:
		stream, format, err = vorbis.Decode(io.NopCloser(bytes.NewReader(data)))
	default:
		return nil, &DecodeError{URI: uri, Err: errors.New("unrecognized audio container")}
	}
	if err != nil {
		return nil, &DecodeError{URI: uri, Err: err}
	}
	defer stream.Close()

	var src beep.Streamer = stream
	if format.SampleRate != rate {
		src = beep.Resample(resampleQuality, format.SampleRate, rate, stream)
	}

	buf := beep.NewBuffer(beep.Format{
		SampleRate:  rate,
		NumChannels: constant.AudioChannels,
		Precision:   constant.AudioBitDepth / 8,
	})
	buf.Append(src)

	if err := stream.Err(); err != nil {
		return nil, &DecodeError{URI: uri, Err: err}
	}
	if buf.Len() == 0 {
		return nil, &DecodeError{URI: uri, Err: errors.New("no audio frames")}
	}

	return &DecodedSample{URI: uri, Source: format, Buffer: buf}, nil
}
