package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errNotWAV = errors.New("not a WAV payload")

// decodeWAV extracts PCM16 samples from a RIFF/WAVE payload. Stereo input is
// averaged down to mono so the player only ever paces one channel.
func decodeWAV(b []byte) (pcm []byte, sampleRate int, err error) {
	if len(b) < 44 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, 0, errNotWAV
	}
	off := 12
	var channels uint16
	var bits uint16
	var rate uint32
	var data []byte
	for off+8 <= len(b) {
		cid := string(b[off : off+4])
		csz := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		off += 8
		switch cid {
		case "fmt ":
			if off+16 > len(b) {
				return nil, 0, fmt.Errorf("truncated fmt chunk")
			}
			format := binary.LittleEndian.Uint16(b[off : off+2])
			channels = binary.LittleEndian.Uint16(b[off+2 : off+4])
			rate = binary.LittleEndian.Uint32(b[off+4 : off+8])
			bits = binary.LittleEndian.Uint16(b[off+14 : off+16])
			if format != 1 || bits != 16 {
				return nil, 0, fmt.Errorf("unsupported WAV format tag=%d bits=%d", format, bits)
			}
			off += csz
		case "data":
			if off+csz > len(b) {
				csz = len(b) - off
			}
			data = b[off : off+csz]
			off += csz
		default:
			off += csz
		}
		if data != nil && rate != 0 {
			break
		}
	}
	if data == nil || rate == 0 {
		return nil, 0, fmt.Errorf("missing WAV data chunk")
	}

	if channels == 2 {
		out := make([]byte, len(data)/2)
		for i := 0; i+3 < len(data); i += 4 {
			l := int16(binary.LittleEndian.Uint16(data[i : i+2]))
			r := int16(binary.LittleEndian.Uint16(data[i+2 : i+4]))
			avg := int16((int32(l) + int32(r)) / 2)
			binary.LittleEndian.PutUint16(out[i/2:i/2+2], uint16(avg))
		}
		data = out
	}
	return data, int(rate), nil
}
