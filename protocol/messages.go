package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
)

var (
	errPayloadShort  = errors.New("protocol: payload too short")
	errExtraBytes    = errors.New("protocol: payload has trailing data")
	errStringTooLong = errors.New("protocol: string exceeds 64KB limit")
)

// MouseReport flag bits.
const (
	MouseFlagRelative uint8 = 1 << iota
)

// MouseReport is one raw mouse packet on the wire. DX/DY carry relative
// motion when MouseFlagRelative is set, otherwise X/Y carry an absolute
// position in the global coordinate space.
type MouseReport struct {
	Flags   uint8
	DX, DY  int32
	X, Y    int32
	Buttons uint32
	Wheel   int16
	WheelH  int16
}

func (m MouseReport) Relative() bool { return m.Flags&MouseFlagRelative != 0 }

func (m MouseReport) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteByte(m.Flags)
	writeInt32(&buf, m.DX)
	writeInt32(&buf, m.DY)
	writeInt32(&buf, m.X)
	writeInt32(&buf, m.Y)
	writeUint32(&buf, m.Buttons)
	writeInt16(&buf, m.Wheel)
	writeInt16(&buf, m.WheelH)
	return buf.Bytes()
}

func DecodeMouseReport(payload []byte) (MouseReport, error) {
	const want = 1 + 4*5 + 2*2
	var m MouseReport
	if len(payload) < want {
		return m, errPayloadShort
	}
	if len(payload) > want {
		return m, errExtraBytes
	}
	m.Flags = payload[0]
	m.DX = int32(binary.LittleEndian.Uint32(payload[1:5]))
	m.DY = int32(binary.LittleEndian.Uint32(payload[5:9]))
	m.X = int32(binary.LittleEndian.Uint32(payload[9:13]))
	m.Y = int32(binary.LittleEndian.Uint32(payload[13:17]))
	m.Buttons = binary.LittleEndian.Uint32(payload[17:21])
	m.Wheel = int16(binary.LittleEndian.Uint16(payload[21:23]))
	m.WheelH = int16(binary.LittleEndian.Uint16(payload[23:25]))
	return m, nil
}

// KeyReport is one decoded keyboard event on the wire.
type KeyReport struct {
	Code      uint32
	Modifiers uint32
	Pressed   bool
}

func (k KeyReport) Encode() []byte {
	var buf bytes.Buffer
	writeUint32(&buf, k.Code)
	writeUint32(&buf, k.Modifiers)
	if k.Pressed {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func DecodeKeyReport(payload []byte) (KeyReport, error) {
	const want = 4 + 4 + 1
	var k KeyReport
	if len(payload) < want {
		return k, errPayloadShort
	}
	if len(payload) > want {
		return k, errExtraBytes
	}
	k.Code = binary.LittleEndian.Uint32(payload[0:4])
	k.Modifiers = binary.LittleEndian.Uint32(payload[4:8])
	k.Pressed = payload[8] != 0
	return k, nil
}

// LayoutDocument carries a screen layout as a JSON document; the service
// owns the schema, the protocol only frames it.
type LayoutDocument struct {
	JSON []byte
}

func (l LayoutDocument) Encode() []byte {
	out := make([]byte, len(l.JSON))
	copy(out, l.JSON)
	return out
}

func DecodeLayoutDocument(payload []byte) (LayoutDocument, error) {
	doc := LayoutDocument{JSON: make([]byte, len(payload))}
	copy(doc.JSON, payload)
	return doc, nil
}

// LayoutResult reports whether a layout application succeeded, with the
// failure reason when it did not.
type LayoutResult struct {
	OK      bool
	Message string
}

func (r LayoutResult) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if r.OK {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	if err := writeString(&buf, r.Message); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeLayoutResult(payload []byte) (LayoutResult, error) {
	var r LayoutResult
	if len(payload) < 3 {
		return r, errPayloadShort
	}
	r.OK = payload[0] != 0
	msg, rest, err := readString(payload[1:])
	if err != nil {
		return r, err
	}
	if len(rest) != 0 {
		return r, errExtraBytes
	}
	r.Message = msg
	return r, nil
}

// Ping and Pong keep a connection alive.
type Ping struct {
	Timestamp int64
}

func (p Ping) Encode() []byte {
	var buf bytes.Buffer
	writeUint64(&buf, uint64(p.Timestamp))
	return buf.Bytes()
}

func DecodePing(payload []byte) (Ping, error) {
	if len(payload) != 8 {
		return Ping{}, errPayloadShort
	}
	return Ping{Timestamp: int64(binary.LittleEndian.Uint64(payload))}, nil
}

// ErrorFrame communicates protocol-level errors.
type ErrorFrame struct {
	Code    uint16
	Message string
}

func (e ErrorFrame) Encode() ([]byte, error) {
	var buf bytes.Buffer
	writeUint16(&buf, e.Code)
	if err := writeString(&buf, e.Message); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeErrorFrame(payload []byte) (ErrorFrame, error) {
	var e ErrorFrame
	if len(payload) < 4 {
		return e, errPayloadShort
	}
	e.Code = binary.LittleEndian.Uint16(payload[0:2])
	msg, rest, err := readString(payload[2:])
	if err != nil {
		return e, err
	}
	if len(rest) != 0 {
		return e, errExtraBytes
	}
	e.Message = msg
	return e, nil
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}

func writeInt16(buf *bytes.Buffer, v int16) { writeUint16(buf, uint16(v)) }

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeInt32(buf *bytes.Buffer, v int32) { writeUint32(buf, uint32(v)) }

func writeUint64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > 0xffff {
		return errStringTooLong
	}
	writeUint16(buf, uint16(len(s)))
	buf.WriteString(s)
	return nil
}

func readString(payload []byte) (string, []byte, error) {
	if len(payload) < 2 {
		return "", nil, errPayloadShort
	}
	n := int(binary.LittleEndian.Uint16(payload[0:2]))
	if len(payload) < 2+n {
		return "", nil, errPayloadShort
	}
	return string(payload[2 : 2+n]), payload[2+n:], nil
}
