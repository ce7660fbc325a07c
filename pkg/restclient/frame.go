package restclient

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WebSocket opcodes this client understands. Continuation frames and the
// ping/pong control opcodes are not handled; the API server sends single
// text/binary frames and a close frame.
const (
	OpcodeText   byte = 0x1
	OpcodeBinary byte = 0x2
	OpcodeClose  byte = 0x8
)

// MaxFramePayload caps the declared payload length of a single frame.
// Anything larger is treated as a malformed frame rather than an allocation
// request.
const MaxFramePayload = 8 << 20

// FrameHeader is the decoded fixed part of one RFC 6455 frame.
type FrameHeader struct {
	Final     bool
	Opcode    byte
	Length    int64 // declared payload length
	HeaderLen int   // bytes the header occupies, mask key included
	Masked    bool
	MaskKey   [4]byte
}

// DecodeFrameHeader parses a frame header from the front of buf. It returns
// ok=false when buf does not yet hold a complete header; callers accumulate
// more bytes and retry. A close frame short-circuits: only the opcode is
// reported, no length or mask parsing.
func DecodeFrameHeader(buf []byte) (FrameHeader, bool, error) {
	if len(buf) < 2 {
		return FrameHeader{}, false, nil
	}
	hdr := FrameHeader{
		Final:  buf[0]&0x80 != 0,
		Opcode: buf[0] & 0x0f,
	}
	if hdr.Opcode == OpcodeClose {
		hdr.HeaderLen = 2
		return hdr, true, nil
	}

	hdr.Masked = buf[1]&0x80 != 0
	code := buf[1] & 0x7f
	offset := 2
	switch code {
	case 126:
		if len(buf) < offset+2 {
			return FrameHeader{}, false, nil
		}
		hdr.Length = int64(binary.BigEndian.Uint16(buf[offset:]))
		offset += 2
	case 127:
		if len(buf) < offset+8 {
			return FrameHeader{}, false, nil
		}
		v := binary.BigEndian.Uint64(buf[offset:])
		if v > uint64(MaxFramePayload) {
			return FrameHeader{}, false, &DecodeError{Reason: fmt.Sprintf("declared length %d exceeds limit", v)}
		}
		hdr.Length = int64(v)
		offset += 8
	default:
		hdr.Length = int64(code)
	}
	if hdr.Length > MaxFramePayload {
		return FrameHeader{}, false, &DecodeError{Reason: fmt.Sprintf("declared length %d exceeds limit", hdr.Length)}
	}

	if hdr.Masked {
		if len(buf) < offset+4 {
			return FrameHeader{}, false, nil
		}
		copy(hdr.MaskKey[:], buf[offset:offset+4])
		offset += 4
	}
	hdr.HeaderLen = offset
	return hdr, true, nil
}

// Unmask XORs payload in place with the 4-byte mask key. Applying it twice
// restores the original bytes.
func Unmask(payload []byte, key [4]byte) {
	for i := range payload {
		payload[i] ^= key[i%4]
	}
}

// frameReader reassembles single frames from a raw upgraded connection and
// yields one unmasked payload per call. State is per connection and reset
// between frames.
type frameReader struct {
	r   io.Reader
	buf []byte
}

func newFrameReader(r io.Reader) *frameReader {
	return &frameReader{r: r}
}

// Next blocks until one complete frame is buffered and returns its unmasked
// payload. A close frame (or clean EOF between frames) yields io.EOF.
func (fr *frameReader) Next() ([]byte, error) {
	var chunk [4096]byte
	for {
		hdr, ok, err := DecodeFrameHeader(fr.buf)
		if err != nil {
			return nil, err
		}
		if ok {
			switch hdr.Opcode {
			case OpcodeClose:
				return nil, io.EOF
			case OpcodeText, OpcodeBinary:
			default:
				// Continuation and ping/pong are not part of the protocol
				// spoken here; anything but data frames is malformed input.
				return nil, &DecodeError{Reason: fmt.Sprintf("unexpected opcode %#x", hdr.Opcode)}
			}
			total := hdr.HeaderLen + int(hdr.Length)
			if len(fr.buf) >= total {
				payload := make([]byte, hdr.Length)
				copy(payload, fr.buf[hdr.HeaderLen:total])
				if hdr.Masked {
					Unmask(payload, hdr.MaskKey)
				}
				fr.buf = append(fr.buf[:0], fr.buf[total:]...)
				return payload, nil
			}
		}
		n, err := fr.r.Read(chunk[:])
		if n > 0 {
			fr.buf = append(fr.buf, chunk[:n]...)
			continue
		}
		if err != nil {
			if err == io.EOF && len(fr.buf) == 0 {
				return nil, io.EOF
			}
			if err == io.EOF {
				return nil, &DecodeError{Reason: "connection ended mid-frame"}
			}
			return nil, err
		}
	}
}
