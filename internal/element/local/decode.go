package local

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/llehouerou/go-mp3"
)

const (
	codecMP3  = "mp3"
	codecFLAC = "flac"
	codecWAV  = "wav"
	codecOgg  = "ogg"
)

// ErrUnsupportedFormat is returned for sources no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// codecFor picks a decoder from the MIME type, falling back to the file
// extension. It returns "" when neither is known.
func codecFor(mimeType, path string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch mt {
	case "audio/mpeg", "audio/mp3", "audio/mpeg3", "audio/x-mpeg-3":
		return codecMP3
	case "audio/flac", "audio/x-flac":
		return codecFLAC
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return codecWAV
	case "audio/ogg", "audio/vorbis", "audio/x-vorbis+ogg":
		return codecOgg
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return codecMP3
	case ".flac":
		return codecFLAC
	case ".wav", ".wave":
		return codecWAV
	case ".ogg", ".oga":
		return codecOgg
	}
	return ""
}

// localPath resolves a file path or file:// URL. Other schemes are not
// playable by this backend.
func localPath(src string) (string, error) {
	if !strings.Contains(src, "://") {
		return src, nil
	}
	u, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.Path, nil
}

// decode wraps f in a streamer for codec. On error the caller still owns f.
func decode(codec string, f io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch codec {
	case codecMP3:
		return decodeMP3(f)
	case codecFLAC:
		// Some taggers prepend an ID3v2 tag the FLAC decoder does not handle
		if err := skipID3v2(f); err != nil {
			return nil, beep.Format{}, err
		}
		return flac.Decode(f)
	case codecWAV:
		return wav.Decode(f)
	case codecOgg:
		return vorbis.Decode(f)
	default:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}
}

// skipID3v2 skips an ID3v2 tag if present at the beginning of the file.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if n < 10 || string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Syncsafe integer: 7 bits per byte
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}

// mp3Stream adapts go-mp3 to beep.StreamSeekCloser.
type mp3Stream struct {
	decoder *mp3.Decoder
	closer  io.Closer
	err     error
	buf     []byte
}

func decodeMP3(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	decoder, err := mp3.NewDecoder(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}
	sampleRate := decoder.SampleRate()
	if sampleRate == 0 {
		return nil, beep.Format{}, errors.New("mp3: invalid sample rate")
	}

	// go-mp3 always outputs 16-bit stereo
	format := beep.Format{SampleRate: beep.SampleRate(sampleRate), NumChannels: 2, Precision: 2}
	return &mp3Stream{decoder: decoder, closer: rc, buf: make([]byte, 8192)}, format, nil
}

func (d *mp3Stream) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}

	need := len(samples) * 4
	if len(d.buf) < need {
		d.buf = make([]byte, need)
	}
	read, err := io.ReadFull(d.decoder, d.buf[:need])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		d.err = err
		return 0, false
	}

	n = read / 4
	for i := range n {
		left := int16(binary.LittleEndian.Uint16(d.buf[i*4:]))    //nolint:gosec // audio samples
		right := int16(binary.LittleEndian.Uint16(d.buf[i*4+2:])) //nolint:gosec // audio samples
		samples[i][0] = float64(left) / 32768.0
		samples[i][1] = float64(right) / 32768.0
	}
	return n, n > 0
}

func (d *mp3Stream) Err() error { return d.err }

func (d *mp3Stream) Len() int {
	return int(max(d.decoder.SampleCount(), 0))
}

func (d *mp3Stream) Position() int {
	return int(d.decoder.SamplePosition())
}

func (d *mp3Stream) Seek(p int) error {
	p = min(max(p, 0), d.Len())
	if err := d.decoder.SeekToSample(int64(p)); err != nil {
		return err
	}
	d.err = nil
	return nil
}

func (d *mp3Stream) Close() error { return d.closer.Close() }
