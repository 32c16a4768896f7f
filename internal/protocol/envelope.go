package protocol

import (
	"bytes"
	"fmt"
)

// Packet types
const (
	PacketTypeCommand  byte = 1 // standard, byte-sized processed count in replies
	PacketTypeExtended byte = 9 // batch, 16-bit processed count in replies
)

// Envelope and reply constants (reverse engineered from controller captures)
const (
	HeaderSize           = 5    // type + 2-byte counter + 2-byte packet id
	MaxCommandsPerPacket = 254  // limit for PacketTypeCommand
	MaxDatagramSize      = 1048 // largest datagram the controller sends
	FreeCommandSpace     = 8191 // reported remaining command buffer

	StatusOK    = 1
	StatusError = 0
	// StatusChecksumRejected is returned by ACTIVATERESOURCE for a bad checksum
	StatusChecksumRejected = 2
)

// Header is the envelope prefix of every controller packet. Replies echo it.
type Header struct {
	Type    byte
	Counter int // rolling command counter (PktCmd)
	ID      int // packet id (PktId)
}

func (h Header) String() string {
	return fmt.Sprintf("Header{type=%d, counter=%d, id=%d}", h.Type, h.Counter, h.ID)
}

// ParseHeader splits a datagram into its header and the embedded command bytes
func ParseHeader(datagram []byte) (Header, []byte, error) {
	if len(datagram) < 1 {
		return Header{}, nil, truncated(0, 1, 0)
	}
	typ := datagram[0]
	if typ != PacketTypeCommand && typ != PacketTypeExtended {
		return Header{}, nil, &Error{
			Type:    ErrTypeUnsupportedPacket,
			Message: fmt.Sprintf("packet type %d", typ),
		}
	}
	r := NewReader(datagram[1:])
	if err := r.need(4); err != nil {
		return Header{}, nil, err
	}
	counter, _ := r.Uint16()
	id, _ := r.Uint16()
	return Header{Type: typ, Counter: counter, ID: id}, r.Rest(), nil
}

// Encode writes the header to w
func (h Header) Encode(w *Writer) {
	w.PutUint8(int(h.Type))
	w.PutUint16(h.Counter)
	w.PutUint16(h.ID)
}

// ReplyStatus carries the values reported in the generic OK and error replies
type ReplyStatus struct {
	Processed int // commands seen in the packet, including ignored ones
	Ignored   int // commands skipped by the sequencing gate
	Button    int // selected button id, -1 for none
	X         int // touch x, -1 for none
	Y         int // touch y, -1 for none
	FreeSpace int
}

func putCount(w *Writer, packetType byte, n int) {
	if packetType == PacketTypeExtended {
		w.PutUint16(n)
	} else {
		w.PutUint8(n)
	}
}

// AppendOK writes the generic success trailer
func AppendOK(w *Writer, packetType byte, s ReplyStatus) {
	w.PutUint8(StatusOK)
	putCount(w, packetType, s.Processed)
	w.PutUint8(s.Button)
	w.PutUint16(s.X)
	w.PutUint16(s.Y)
	w.PutUint8(0)
	w.PutUint8(0)
	w.PutUint16(s.FreeSpace)
	w.PutUint16(s.Ignored)
}

// AppendError writes the generic error trailer. It carries no touch fields.
func AppendError(w *Writer, packetType byte, s ReplyStatus) {
	w.PutUint8(StatusError)
	putCount(w, packetType, s.Processed)
	w.PutUint16(s.FreeSpace)
	w.PutUint16(s.Ignored)
}

// SystemInfo is reported by GETSYSTEM
type SystemInfo struct {
	BasisVersion int // e.g. 142 for 1.42
	AppMajor     int
	AppMinor     int
}

// AppendSystemInfo writes the GETSYSTEM reply
func AppendSystemInfo(w *Writer, info SystemInfo) {
	w.PutCommandID(CmdGetSystem)
	w.PutUint8(StatusOK)
	w.PutUint16(info.BasisVersion / 100)
	w.PutUint8(info.BasisVersion % 100)
	w.PutUint16(info.AppMajor)
	w.PutUint8(info.AppMinor)
}

// ResourceInfo is reported by GETRESOURCEINFO
type ResourceInfo struct {
	ResourceID       int
	FontsUsed        int
	SymbolsUsed      int
	FontsAvailable   int
	SymbolsAvailable int
	Checksum         int32
}

// AppendResourceInfo writes the GETRESOURCEINFO reply
func AppendResourceInfo(w *Writer, info ResourceInfo) {
	w.PutCommandID(CmdGetResourceInfo)
	w.PutUint16(info.ResourceID)
	w.PutUint8(info.FontsUsed)
	w.PutUint8(info.SymbolsUsed)
	w.PutUint8(info.FontsAvailable - info.FontsUsed)
	w.PutUint8(info.SymbolsAvailable - info.SymbolsUsed)
	w.PutRaw([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xF8, 0x00, 0x00, 0x00})
	w.PutInt32(info.Checksum)
}

// AppendAck writes a [command id, status] reply
func AppendAck(w *Writer, id CommandID, status int) {
	w.PutCommandID(id)
	w.PutUint8(status)
}

// AppendConfig writes the SETCONFIG reply
func AppendConfig(w *Writer, config int32) {
	w.PutCommandID(CmdSetConfig)
	w.PutUint8(StatusOK)
	w.PutInt32(config)
}

// Handshake datagrams
var (
	handshakePrefix = []byte{8, 0, 0, 0, 0, 1}
)

// Connect reply layout
const (
	ConnectReplySize   = 7
	connectReplyMarker = 1 // byte 5 of every connect reply
)

// ConnectReply classifies the controller's answer to a connection request
type ConnectReply int

const (
	ConnectReplyUnrecognized ConnectReply = iota
	ConnectReplyAccepted
	ConnectReplyWrongPassword
	ConnectReplyInUse
)

func (c ConnectReply) String() string {
	switch c {
	case ConnectReplyAccepted:
		return "accepted"
	case ConnectReplyWrongPassword:
		return "wrong password"
	case ConnectReplyInUse:
		return "in use"
	default:
		return "unrecognized"
	}
}

// Connect reply codes at byte 6
const (
	connectCodeWrongPassword = 0
	connectCodeAccepted      = 1
	connectCodeInUse         = 2
)

// ConnectRequest builds the connection request carrying the UDP password
func ConnectRequest(secret string) []byte {
	out := make([]byte, 0, len(handshakePrefix)+len(secret))
	out = append(out, handshakePrefix...)
	return append(out, secret...)
}

// ClassifyConnectReply interprets a datagram received after ConnectRequest
func ClassifyConnectReply(b []byte) ConnectReply {
	if len(b) != ConnectReplySize || b[5] != connectReplyMarker {
		return ConnectReplyUnrecognized
	}
	switch b[6] {
	case connectCodeWrongPassword:
		return ConnectReplyWrongPassword
	case connectCodeAccepted:
		return ConnectReplyAccepted
	case connectCodeInUse:
		return ConnectReplyInUse
	default:
		return ConnectReplyUnrecognized
	}
}

// ConnectReplyFor builds the reply a controller sends for outcome c. It is
// used by test doubles and the loopback controller.
func ConnectReplyFor(c ConnectReply) []byte {
	out := make([]byte, ConnectReplySize)
	copy(out, handshakePrefix[:5])
	out[5] = connectReplyMarker
	switch c {
	case ConnectReplyAccepted:
		out[6] = connectCodeAccepted
	case ConnectReplyInUse:
		out[6] = connectCodeInUse
	case ConnectReplyWrongPassword:
		out[6] = connectCodeWrongPassword
	default:
		out[5] = 0
	}
	return out
}

// DisconnectRequest builds the disconnect datagram
func DisconnectRequest() []byte {
	out := make([]byte, 0, len(handshakePrefix)+4)
	out = append(out, handshakePrefix...)
	return append(out, 0, 0, 0, 0)
}

// IsDisconnectConfirm reports whether b confirms a disconnect
func IsDisconnectConfirm(b []byte) bool {
	return len(b) >= len(handshakePrefix) && bytes.Equal(b[:len(handshakePrefix)], handshakePrefix)
}
