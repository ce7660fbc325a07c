package restclient

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestDecodeFrameHeaderSmallLength(t *testing.T) {
	// Final text frame, unmasked, 5-byte payload.
	hdr, ok, err := DecodeFrameHeader([]byte{0x81, 0x05, 'h', 'e', 'l', 'l', 'o'})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a complete header")
	}
	if !hdr.Final {
		t.Error("expected final bit set")
	}
	if hdr.Opcode != OpcodeText {
		t.Errorf("opcode = %#x, want %#x", hdr.Opcode, OpcodeText)
	}
	if hdr.Length != 5 {
		t.Errorf("length = %d, want 5", hdr.Length)
	}
	if hdr.HeaderLen != 2 {
		t.Errorf("header length = %d, want 2", hdr.HeaderLen)
	}
	if hdr.Masked {
		t.Error("expected unmasked")
	}
}

func TestDecodeFrameHeaderExtended16(t *testing.T) {
	for _, length := range []int{126, 300, 65535} {
		buf := []byte{0x82, 126, 0, 0}
		binary.BigEndian.PutUint16(buf[2:], uint16(length))
		hdr, ok, err := DecodeFrameHeader(buf)
		if err != nil || !ok {
			t.Fatalf("length %d: ok=%v err=%v", length, ok, err)
		}
		if hdr.Length != int64(length) {
			t.Errorf("declared length = %d, want %d", hdr.Length, length)
		}
		if hdr.HeaderLen != 4 {
			t.Errorf("header length = %d, want 4", hdr.HeaderLen)
		}
	}
}

func TestDecodeFrameHeaderExtended64(t *testing.T) {
	buf := []byte{0x82, 127, 0, 0, 0, 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint64(buf[2:], 70000)
	hdr, ok, err := DecodeFrameHeader(buf)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if hdr.Length != 70000 {
		t.Errorf("declared length = %d, want 70000", hdr.Length)
	}
	if hdr.HeaderLen != 10 {
		t.Errorf("header length = %d, want 10", hdr.HeaderLen)
	}
}

func TestDecodeFrameHeaderRejectsOversizedLength(t *testing.T) {
	buf := []byte{0x82, 127, 0, 0, 0, 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint64(buf[2:], uint64(MaxFramePayload)+1)
	_, _, err := DecodeFrameHeader(buf)
	var de *DecodeError
	if err == nil {
		t.Fatal("expected a decode error for an oversized length")
	}
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
}

func TestDecodeFrameHeaderIncomplete(t *testing.T) {
	cases := [][]byte{
		{},
		{0x81},
		{0x81, 126, 0x01},          // 16-bit length cut short
		{0x81, 127, 0, 0, 0, 0},    // 64-bit length cut short
		{0x81, 0x80 | 5, 0x1, 0x2}, // mask key cut short
	}
	for i, buf := range cases {
		_, ok, err := DecodeFrameHeader(buf)
		if err != nil {
			t.Errorf("case %d: unexpected error: %v", i, err)
		}
		if ok {
			t.Errorf("case %d: expected incomplete", i)
		}
	}
}

func TestDecodeFrameHeaderCloseShortCircuits(t *testing.T) {
	// Only the opcode matters; length bits of a close frame are not parsed.
	hdr, ok, err := DecodeFrameHeader([]byte{0x88, 0x02})
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if hdr.Opcode != OpcodeClose {
		t.Errorf("opcode = %#x, want %#x", hdr.Opcode, OpcodeClose)
	}
	if hdr.Length != 0 {
		t.Errorf("length = %d, want 0", hdr.Length)
	}
}

func TestUnmaskRoundTrip(t *testing.T) {
	key := [4]byte{0x37, 0xfa, 0x21, 0x3d}
	payload := []byte("Hello, streaming world! 0123456789")
	masked := append([]byte(nil), payload...)
	Unmask(masked, key)
	if bytes.Equal(masked, payload) {
		t.Fatal("masking changed nothing")
	}
	Unmask(masked, key)
	if !bytes.Equal(masked, payload) {
		t.Errorf("round trip mismatch: got %q want %q", masked, payload)
	}
}

func TestFrameReaderSingleUnmaskedTextFrame(t *testing.T) {
	raw := []byte{0x81, 0x05, 'h', 'e', 'l', 'l', 'o'}
	fr := newFrameReader(bytes.NewReader(raw))
	payload, err := fr.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != "hello" {
		t.Errorf("payload = %q, want %q", payload, "hello")
	}
	if _, err := fr.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after the stream, got %v", err)
	}
}

func TestFrameReaderMaskedFrame(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}
	payload := []byte("masked payload")
	masked := append([]byte(nil), payload...)
	Unmask(masked, key) // masking and unmasking are the same XOR

	raw := []byte{0x82, 0x80 | byte(len(payload))}
	raw = append(raw, key[:]...)
	raw = append(raw, masked...)

	fr := newFrameReader(bytes.NewReader(raw))
	got, err := fr.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}

func TestFrameReaderReassemblesAcrossReads(t *testing.T) {
	// Two frames delivered one byte at a time.
	raw := []byte{0x81, 0x03, 'o', 'n', 'e', 0x81, 0x03, 't', 'w', 'o', 0x88, 0x00}
	fr := newFrameReader(&trickleReader{data: raw})

	for _, want := range []string{"one", "two"} {
		payload, err := fr.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(payload) != want {
			t.Errorf("payload = %q, want %q", payload, want)
		}
	}
	if _, err := fr.Next(); err != io.EOF {
		t.Errorf("expected io.EOF at the close frame, got %v", err)
	}
}

func TestFrameReaderRejectsUnexpectedOpcodes(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{"ping", []byte{0x89, 0x00}},
		{"pong", []byte{0x8a, 0x00}},
		{"continuation", []byte{0x80, 0x03, 'e', 'n', 'd'}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fr := newFrameReader(bytes.NewReader(tc.raw))
			_, err := fr.Next()
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
		})
	}
}

func TestFrameReaderTruncatedFrame(t *testing.T) {
	fr := newFrameReader(bytes.NewReader([]byte{0x81, 0x05, 'h', 'e'}))
	_, err := fr.Next()
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError for a truncated frame, got %v", err)
	}
}

// trickleReader yields one byte per Read.
type trickleReader struct {
	data []byte
	pos  int
}

func (r *trickleReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.pos]
	r.pos++
	return 1, nil
}
