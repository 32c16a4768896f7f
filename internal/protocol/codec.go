package protocol

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// Reader decodes primitive S-Touch wire types from a byte slice.
// All multi-byte values are little-endian.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader positioned at the start of buf
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Offset returns the current read position
func (r *Reader) Offset() int {
	return r.off
}

// Rest returns the unread bytes without consuming them
func (r *Reader) Rest() []byte {
	return r.buf[r.off:]
}

// Skip advances the read position by n bytes
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.off += n
	return nil
}

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return truncated(r.off, n, r.Remaining())
	}
	return nil
}

// Uint8 reads an unsigned byte
func (r *Reader) Uint8() (int, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return int(v), nil
}

// Uint16 reads an unsigned 16-bit value
func (r *Reader) Uint16() (int, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return int(v), nil
}

// Int32 reads a signed 32-bit value
func (r *Reader) Int32() (int32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return int32(v), nil
}

// MAC reads a 6-byte hardware address
func (r *Reader) MAC() (MAC, error) {
	var m MAC
	if err := r.need(6); err != nil {
		return m, err
	}
	copy(m[:], r.buf[r.off:r.off+6])
	r.off += 6
	return m, nil
}

// CommandID reads a 1-byte command id
func (r *Reader) CommandID() (CommandID, error) {
	v, err := r.Uint8()
	return CommandID(v), err
}

// Color reads an RGB565 value and expands it
func (r *Reader) Color() (Color, error) {
	v, err := r.Uint16()
	if err != nil {
		return Color{}, err
	}
	return ColorFromRGB565(uint16(v)), nil
}

// Coordinates reads an x/y pair
func (r *Reader) Coordinates() (Coordinates, error) {
	if err := r.need(4); err != nil {
		return Coordinates{}, err
	}
	x, _ := r.Uint16()
	y, _ := r.Uint16()
	return Coordinates{X: x, Y: y}, nil
}

// Rectangle reads the upper-left and lower-right corners
func (r *Reader) Rectangle() (Rectangle, error) {
	if err := r.need(8); err != nil {
		return Rectangle{}, err
	}
	ul, _ := r.Coordinates()
	lr, _ := r.Coordinates()
	return Rectangle{XMin: ul.X, YMin: ul.Y, XMax: lr.X, YMax: lr.Y}, nil
}

// RoundRectangle reads a rectangle followed by its curvature
func (r *Reader) RoundRectangle() (RoundRectangle, error) {
	if err := r.need(10); err != nil {
		return RoundRectangle{}, err
	}
	rect, _ := r.Rectangle()
	curv, _ := r.Uint16()
	return RoundRectangle{Rectangle: rect, Curvature: curv}, nil
}

// Circle reads a center point and radius
func (r *Reader) Circle() (Circle, error) {
	if err := r.need(6); err != nil {
		return Circle{}, err
	}
	c, _ := r.Coordinates()
	radius, _ := r.Uint16()
	return Circle{X: c.X, Y: c.Y, Radius: radius}, nil
}

// Symbol reads a position and symbol id
func (r *Reader) Symbol() (Symbol, error) {
	if err := r.need(6); err != nil {
		return Symbol{}, err
	}
	c, _ := r.Coordinates()
	id, _ := r.Uint16()
	return Symbol{X: c.X, Y: c.Y, ID: id}, nil
}

// Text reads a null-terminated Windows-1252 string. The text is returned
// exactly as sent, including leading or trailing blanks.
func (r *Reader) Text() (string, error) {
	start := r.off
	for i := start; i < len(r.buf); i++ {
		if r.buf[i] == 0 {
			s, err := decodeText(r.buf[start:i])
			if err != nil {
				return "", err
			}
			r.off = i + 1
			return s, nil
		}
	}
	return "", &Error{
		Type:    ErrTypeMalformed,
		Offset:  len(r.buf),
		Message: "string has no terminator",
	}
}

// TextAt reads a position followed by a string
func (r *Reader) TextAt() (TextAt, error) {
	c, err := r.Coordinates()
	if err != nil {
		return TextAt{}, err
	}
	s, err := r.Text()
	if err != nil {
		return TextAt{}, err
	}
	return TextAt{X: c.X, Y: c.Y, Text: s}, nil
}

// TextRotated reads an angle followed by a string
func (r *Reader) TextRotated() (TextRotated, error) {
	angle, err := r.Uint16()
	if err != nil {
		return TextRotated{}, err
	}
	s, err := r.Text()
	if err != nil {
		return TextRotated{}, err
	}
	return TextRotated{Angle: angle, Text: s}, nil
}

// CharRotated reads an angle followed by exactly one character byte
func (r *Reader) CharRotated() (TextRotated, error) {
	if err := r.need(3); err != nil {
		return TextRotated{}, err
	}
	angle, _ := r.Uint16()
	s, err := decodeText(r.buf[r.off : r.off+1])
	if err != nil {
		return TextRotated{}, err
	}
	r.off++
	return TextRotated{Angle: angle, Text: s}, nil
}

// Button reads an id byte followed by the button's box
func (r *Reader) Button() (Button, error) {
	if err := r.need(9); err != nil {
		return Button{}, err
	}
	id, _ := r.Uint8()
	rect, _ := r.Rectangle()
	return Button{ID: id, XMin: rect.XMin, YMin: rect.YMin, XMax: rect.XMax, YMax: rect.YMax}, nil
}

// Writer encodes primitive S-Touch wire types into a growing buffer
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with room for size bytes
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Bytes returns the encoded data
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written
func (w *Writer) Len() int {
	return len(w.buf)
}

// Truncate discards everything after the first n bytes
func (w *Writer) Truncate(n int) {
	if n < len(w.buf) {
		w.buf = w.buf[:n]
	}
}

// PutRaw appends bytes verbatim
func (w *Writer) PutRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

// PutUint8 appends the low byte of v
func (w *Writer) PutUint8(v int) {
	w.buf = append(w.buf, byte(v))
}

// PutUint16 appends the low 16 bits of v. Negative values such as the -1
// "no touch" marker wrap to 0xFFFF.
func (w *Writer) PutUint16(v int) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(v))
}

// PutInt32 appends a signed 32-bit value
func (w *Writer) PutInt32(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

// PutMAC appends a hardware address
func (w *Writer) PutMAC(m MAC) {
	w.buf = append(w.buf, m[:]...)
}

// PutCommandID appends a command id
func (w *Writer) PutCommandID(id CommandID) {
	w.buf = append(w.buf, byte(id))
}

// PutColor appends the RGB565 form of c
func (w *Writer) PutColor(c Color) {
	w.PutUint16(int(c.RGB565()))
}

// PutCoordinates appends an x/y pair
func (w *Writer) PutCoordinates(c Coordinates) {
	w.PutUint16(c.X)
	w.PutUint16(c.Y)
}

// PutRectangle appends both corners
func (w *Writer) PutRectangle(r Rectangle) {
	w.PutCoordinates(Coordinates{X: r.XMin, Y: r.YMin})
	w.PutCoordinates(Coordinates{X: r.XMax, Y: r.YMax})
}

// PutRoundRectangle appends the rectangle and its curvature
func (w *Writer) PutRoundRectangle(r RoundRectangle) {
	w.PutRectangle(r.Rectangle)
	w.PutUint16(r.Curvature)
}

// PutCircle appends center and radius
func (w *Writer) PutCircle(c Circle) {
	w.PutCoordinates(Coordinates{X: c.X, Y: c.Y})
	w.PutUint16(c.Radius)
}

// PutSymbol appends position and symbol id
func (w *Writer) PutSymbol(s Symbol) {
	w.PutCoordinates(Coordinates{X: s.X, Y: s.Y})
	w.PutUint16(s.ID)
}

// PutString appends the Windows-1252 encoding of s and a terminator
func (w *Writer) PutString(s string) error {
	b, err := encodeText(s)
	if err != nil {
		return err
	}
	w.buf = append(w.buf, b...)
	w.buf = append(w.buf, 0)
	return nil
}

// PutTextAt appends position and string
func (w *Writer) PutTextAt(t TextAt) error {
	w.PutCoordinates(Coordinates{X: t.X, Y: t.Y})
	return w.PutString(t.Text)
}

// PutTextRotated appends angle and string
func (w *Writer) PutTextRotated(t TextRotated) error {
	w.PutUint16(t.Angle)
	return w.PutString(t.Text)
}

// PutCharRotated appends angle and the first character of t.Text
func (w *Writer) PutCharRotated(t TextRotated) error {
	b, err := encodeText(t.Text)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return &Error{Type: ErrTypeEncode, Command: CmdPutCRot, Message: "rotated character is empty"}
	}
	w.PutUint16(t.Angle)
	w.buf = append(w.buf, b[0])
	return nil
}

// PutButton appends id and box
func (w *Writer) PutButton(b Button) {
	w.PutUint8(b.ID)
	w.PutRectangle(b.Box())
}

func decodeText(b []byte) (string, error) {
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", &Error{Type: ErrTypeMalformed, Message: "invalid windows-1252 text", Err: err}
	}
	return string(s), nil
}

func encodeText(s string) ([]byte, error) {
	b, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, &Error{
			Type:    ErrTypeEncode,
			Message: fmt.Sprintf("%q is not representable in windows-1252", s),
			Err:     err,
		}
	}
	return b, nil
}

// DecodeChar maps a single code page byte, as carried by PUTC, to text
func DecodeChar(b byte) string {
	return string(charmap.Windows1252.DecodeByte(b))
}
