package protocol

import "fmt"

// Command is one decoded embedded command. The concrete types below form a
// closed set; handlers dispatch on them with a type switch.
type Command interface {
	ID() CommandID
}

// Bare is a command without payload (SWITCHON, SETPIXEL, GETSYSTEM, ...)
type Bare struct{ Cmd CommandID }

// ByteParam carries one unsigned byte (SETSTYLE, SETINVERS, SETFONTTYPE,
// PUTC, SETBACKLIGHT, SETCLICK, DELBUTTON)
type ByteParam struct {
	Cmd   CommandID
	Value int
}

// ShortParam carries one unsigned 16-bit value (SYNCNOW, SETBUZZER)
type ShortParam struct {
	Cmd   CommandID
	Value int
}

// IntParam carries one signed 32-bit value (SETCONFIG, ACTIVATERESOURCE)
type IntParam struct {
	Cmd   CommandID
	Value int32
}

// ColorParam carries one color (SETFORECOLOR, SETBACKCOLOR)
type ColorParam struct {
	Cmd   CommandID
	Color Color
}

// Position carries a coordinate pair (MOVETO, LINETO, SETXY, SETTEMPOFFSETS)
type Position struct {
	Cmd CommandID
	Coordinates
}

// SymbolParam carries a symbol reference (DRAWSYMBOL, DELETESYMBOL)
type SymbolParam struct {
	Cmd CommandID
	Symbol
}

// Rotated carries rotated text (PUTCROT, PRINTROT)
type Rotated struct {
	Cmd CommandID
	TextRotated
}

// DrawRect is DISPLAY_DRAWRECT
type DrawRect struct{ Rectangle }

// DrawRoundRect is DISPLAY_DRAWROUNDRECT
type DrawRoundRect struct{ RoundRectangle }

// DrawArc is DISPLAY_DRAWARC
type DrawArc struct{ Circle }

// Print is DISPLAY_PRINT, text at the current cursor
type Print struct{ Text string }

// PrintXY is DISPLAY_PRINTXY
type PrintXY struct{ TextAt }

// SetButton is DISPLAY_SETBUTTON
type SetButton struct{ Button }

// Unknown is returned for ids missing from the command table. Its length
// cannot be known, so the rest of the packet is unusable.
type Unknown struct{ Cmd CommandID }

func (c Bare) ID() CommandID        { return c.Cmd }
func (c ByteParam) ID() CommandID   { return c.Cmd }
func (c ShortParam) ID() CommandID  { return c.Cmd }
func (c IntParam) ID() CommandID    { return c.Cmd }
func (c ColorParam) ID() CommandID  { return c.Cmd }
func (c Position) ID() CommandID    { return c.Cmd }
func (c SymbolParam) ID() CommandID { return c.Cmd }
func (c Rotated) ID() CommandID     { return c.Cmd }
func (DrawRect) ID() CommandID      { return CmdDrawRect }
func (DrawRoundRect) ID() CommandID { return CmdDrawRoundRect }
func (DrawArc) ID() CommandID       { return CmdDrawArc }
func (Print) ID() CommandID         { return CmdPrint }
func (PrintXY) ID() CommandID       { return CmdPrintXY }
func (SetButton) ID() CommandID     { return CmdSetButton }
func (c Unknown) ID() CommandID     { return c.Cmd }

// Decode reads the payload of command id from the start of payload.
// It returns the typed command and the number of payload bytes consumed.
// Unknown ids yield an Unknown value and no error.
func Decode(id CommandID, payload []byte) (Command, int, error) {
	d, ok := Lookup(id)
	if !ok {
		return Unknown{Cmd: id}, 0, nil
	}
	size, err := d.PayloadSize(payload)
	if err != nil {
		return nil, 0, err
	}
	if len(payload) < size {
		return nil, 0, &Error{
			Type:    ErrTypeTruncated,
			Command: id,
			Message: fmt.Sprintf("%s needs %d bytes, %d remaining", d.Name, size, len(payload)),
		}
	}

	r := NewReader(payload[:size])
	cmd, err := decodePayload(d, r)
	if err != nil {
		if pe, ok := err.(*Error); ok && pe.Command == 0 {
			pe.Command = id
		}
		return nil, 0, err
	}
	return cmd, size, nil
}

func decodePayload(d Descriptor, r *Reader) (Command, error) {
	switch d.Payload {
	case PayloadNone:
		return Bare{Cmd: d.ID}, nil
	case PayloadByte:
		v, err := r.Uint8()
		return ByteParam{Cmd: d.ID, Value: v}, err
	case PayloadShort:
		v, err := r.Uint16()
		return ShortParam{Cmd: d.ID, Value: v}, err
	case PayloadInt:
		v, err := r.Int32()
		return IntParam{Cmd: d.ID, Value: v}, err
	case PayloadColor:
		c, err := r.Color()
		return ColorParam{Cmd: d.ID, Color: c}, err
	case PayloadCoordinates:
		c, err := r.Coordinates()
		return Position{Cmd: d.ID, Coordinates: c}, err
	case PayloadRectangle:
		rect, err := r.Rectangle()
		return DrawRect{rect}, err
	case PayloadRoundRectangle:
		rr, err := r.RoundRectangle()
		return DrawRoundRect{rr}, err
	case PayloadCircle:
		c, err := r.Circle()
		return DrawArc{c}, err
	case PayloadSymbol:
		s, err := r.Symbol()
		return SymbolParam{Cmd: d.ID, Symbol: s}, err
	case PayloadString:
		s, err := r.Text()
		return Print{Text: s}, err
	case PayloadTextAt:
		t, err := r.TextAt()
		return PrintXY{t}, err
	case PayloadTextRotated:
		t, err := r.TextRotated()
		return Rotated{Cmd: d.ID, TextRotated: t}, err
	case PayloadCharRotated:
		t, err := r.CharRotated()
		return Rotated{Cmd: d.ID, TextRotated: t}, err
	case PayloadButton:
		b, err := r.Button()
		return SetButton{b}, err
	default:
		return nil, fmt.Errorf("no reader for payload kind %d", d.Payload)
	}
}

// Next decodes the command at the start of buf (id byte plus payload) and
// returns it with the total number of bytes consumed.
func Next(buf []byte) (Command, int, error) {
	if len(buf) == 0 {
		return nil, 0, truncated(0, 1, 0)
	}
	id := CommandID(buf[0])
	cmd, n, err := Decode(id, buf[1:])
	if err != nil {
		return nil, 0, err
	}
	if u, ok := cmd.(Unknown); ok {
		return u, 1, &Error{
			Type:    ErrTypeUnknownCommand,
			Command: id,
			Message: fmt.Sprintf("command id %d", byte(id)),
		}
	}
	return cmd, n + 1, nil
}

// Encode writes the command id followed by its payload
func Encode(cmd Command) ([]byte, error) {
	w := NewWriter(16)
	if err := EncodeTo(w, cmd); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// EncodeTo appends the encoded command to w. The command's concrete type
// must match the payload kind registered for its id.
func EncodeTo(w *Writer, cmd Command) error {
	id := cmd.ID()
	d, ok := Lookup(id)
	if !ok {
		return &Error{Type: ErrTypeUnknownCommand, Command: id, Message: fmt.Sprintf("command id %d", byte(id))}
	}
	mismatch := &Error{
		Type:    ErrTypeEncode,
		Command: id,
		Message: fmt.Sprintf("%T cannot encode %s", cmd, d.Name),
	}

	start := w.Len()
	w.PutCommandID(id)

	var err error
	switch c := cmd.(type) {
	case Bare:
		if d.Payload != PayloadNone {
			err = mismatch
		}
	case ByteParam:
		if d.Payload != PayloadByte {
			err = mismatch
		} else {
			w.PutUint8(c.Value)
		}
	case ShortParam:
		if d.Payload != PayloadShort {
			err = mismatch
		} else {
			w.PutUint16(c.Value)
		}
	case IntParam:
		if d.Payload != PayloadInt {
			err = mismatch
		} else {
			w.PutInt32(c.Value)
		}
	case ColorParam:
		if d.Payload != PayloadColor {
			err = mismatch
		} else {
			w.PutColor(c.Color)
		}
	case Position:
		if d.Payload != PayloadCoordinates {
			err = mismatch
		} else {
			w.PutCoordinates(c.Coordinates)
		}
	case SymbolParam:
		if d.Payload != PayloadSymbol {
			err = mismatch
		} else {
			w.PutSymbol(c.Symbol)
		}
	case Rotated:
		switch d.Payload {
		case PayloadTextRotated:
			err = w.PutTextRotated(c.TextRotated)
		case PayloadCharRotated:
			err = w.PutCharRotated(c.TextRotated)
		default:
			err = mismatch
		}
	case DrawRect:
		w.PutRectangle(c.Rectangle)
	case DrawRoundRect:
		w.PutRoundRectangle(c.RoundRectangle)
	case DrawArc:
		w.PutCircle(c.Circle)
	case Print:
		err = w.PutString(c.Text)
	case PrintXY:
		err = w.PutTextAt(c.TextAt)
	case SetButton:
		w.PutButton(c.Button)
	default:
		err = mismatch
	}

	if err != nil {
		w.Truncate(start)
		if pe, ok := err.(*Error); ok && pe.Command == 0 {
			pe.Command = id
		}
		return err
	}
	return nil
}
