package tunnel

import (
	"bytes"
	"encoding/binary"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// FrameType is the message type of one tunnel frame, as defined by the
// secure tunneling protocol.
type FrameType int32

const (
	TypeUnknown FrameType = iota
	TypeData
	TypeStreamStart
	TypeStreamReset
	TypeSessionReset
	TypeServiceIDs
	TypeConnectionStart
	TypeConnectionReset
)

func (t FrameType) String() string {
	switch t {
	case TypeData:
		return "Data"
	case TypeStreamStart:
		return "StreamStart"
	case TypeStreamReset:
		return "StreamReset"
	case TypeSessionReset:
		return "SessionReset"
	case TypeServiceIDs:
		return "ServiceIds"
	case TypeConnectionStart:
		return "ConnectionStart"
	case TypeConnectionReset:
		return "ConnectionReset"
	default:
		return "Unknown"
	}
}

// Frame is one protobuf message on the tunnel WebSocket. The payload is
// opaque to this layer; Data frames carry the bridged byte stream.
//
// Wire shape (proto3):
//
//	Type  msg_type  = 1;
//	int32 stream_id = 2;
//	bool  ignorable = 3;
//	bytes payload   = 4;
type Frame struct {
	Type      FrameType
	StreamID  int32
	Ignorable bool
	Payload   []byte
}

const (
	fieldType      = 1
	fieldStreamID  = 2
	fieldIgnorable = 3
	fieldPayload   = 4
)

// marshal encodes the frame as proto3 wire bytes, omitting zero values the
// way generated code does.
func (f *Frame) marshal() []byte {
	var b []byte
	if f.Type != TypeUnknown {
		b = protowire.AppendTag(b, fieldType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(f.Type))
	}
	if f.StreamID != 0 {
		b = protowire.AppendTag(b, fieldStreamID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(f.StreamID)))
	}
	if f.Ignorable {
		b = protowire.AppendTag(b, fieldIgnorable, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	if len(f.Payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, f.Payload)
	}
	return b
}

func unmarshalFrame(data []byte) (*Frame, error) {
	f := &Frame{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, ErrFrameDecode(protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, ErrFrameDecode(protowire.ParseError(n))
			}
			f.Type = FrameType(int32(v))
			data = data[n:]
		case num == fieldStreamID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, ErrFrameDecode(protowire.ParseError(n))
			}
			f.StreamID = int32(v)
			data = data[n:]
		case num == fieldIgnorable && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, ErrFrameDecode(protowire.ParseError(n))
			}
			f.Ignorable = v != 0
			data = data[n:]
		case num == fieldPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, ErrFrameDecode(protowire.ParseError(n))
			}
			f.Payload = append([]byte(nil), v...)
			data = data[n:]
		default:
			// Unknown fields (e.g. service_id from newer peers) are skipped.
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, ErrFrameDecode(protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return f, nil
}

const lengthPrefixSize = 2

// EncodeFrame appends the frame to buf as a u16 big-endian length prefix
// followed by the protobuf bytes.
func EncodeFrame(buf *bytes.Buffer, f *Frame) error {
	raw := f.marshal()
	if len(raw) > math.MaxUint16 {
		return ErrEncodedLength
	}
	var prefix [lengthPrefixSize]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(raw)))
	buf.Write(prefix[:])
	buf.Write(raw)
	return nil
}

// DecodeFrames parses the zero or more length-prefixed frames concatenated
// in one WebSocket binary message. A truncated trailer (the remote lied
// about the length) terminates decoding without error; the partial bytes are
// discarded.
func DecodeFrames(data []byte) ([]*Frame, error) {
	var frames []*Frame
	for len(data) > lengthPrefixSize {
		size := int(binary.BigEndian.Uint16(data))
		if size > len(data)-lengthPrefixSize {
			break
		}
		f, err := unmarshalFrame(data[lengthPrefixSize : lengthPrefixSize+size])
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
		data = data[lengthPrefixSize+size:]
	}
	return frames, nil
}
