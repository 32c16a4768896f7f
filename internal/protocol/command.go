package protocol

import "fmt"

// CommandID is the 1-byte identifier that prefixes every embedded command
type CommandID byte

// Display commands
const (
	CmdSwitchOn       CommandID = 0
	CmdSwitchOff      CommandID = 1
	CmdSetStyle       CommandID = 2
	CmdSetInvers      CommandID = 3
	CmdSetForeColor   CommandID = 4
	CmdSetBackColor   CommandID = 5
	CmdSetFontType    CommandID = 6
	CmdSetPixel       CommandID = 7
	CmdMoveTo         CommandID = 8
	CmdLineTo         CommandID = 9
	CmdDrawRect       CommandID = 10
	CmdDrawArc        CommandID = 11
	CmdDrawRoundRect  CommandID = 12
	CmdDrawSymbol     CommandID = 13
	CmdDeleteSymbol   CommandID = 14
	CmdSetXY          CommandID = 15
	CmdPutC           CommandID = 16
	CmdPrint          CommandID = 17
	CmdPrintXY        CommandID = 18
	CmdPutCRot        CommandID = 19
	CmdPrintRot       CommandID = 20
	CmdCalibrateTouch CommandID = 21
	CmdSyncNow        CommandID = 22
	CmdSetBacklight   CommandID = 128
	CmdSetBuzzer      CommandID = 129
	CmdSetClick       CommandID = 130
	CmdSetButton      CommandID = 144
	CmdDelButton      CommandID = 145
	CmdSetTempOffsets CommandID = 146
)

// System commands (bypass sequencing)
const (
	CmdGetSystem        CommandID = 240
	CmdGoSystem         CommandID = 241
	CmdClearID          CommandID = 242
	CmdGetResourceInfo  CommandID = 243
	CmdEraseResource    CommandID = 244
	CmdFlashResource    CommandID = 245
	CmdActivateResource CommandID = 246
	CmdSetConfig        CommandID = 247
	CmdClearApp         CommandID = 250
	CmdFlashApp         CommandID = 251
	CmdActivateApp      CommandID = 252
)

// Variable marks a descriptor whose length is found by scanning for a terminator
const Variable = -1

// PayloadKind selects the reader/writer used for a command's payload
type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadByte
	PayloadShort
	PayloadInt
	PayloadColor
	PayloadCoordinates
	PayloadRectangle
	PayloadRoundRectangle
	PayloadCircle
	PayloadSymbol
	PayloadString
	PayloadTextAt
	PayloadTextRotated
	PayloadCharRotated
	PayloadButton
)

// Descriptor describes the wire shape of one command
type Descriptor struct {
	ID           CommandID
	Name         string
	Length       int // payload bytes, or Variable
	StringOffset int // fixed prefix before the terminated string (Variable only)
	Payload      PayloadKind
	System       bool
}

var descriptors = map[CommandID]Descriptor{
	CmdSwitchOn:       {CmdSwitchOn, "DISPLAY_SWITCHON", 0, 0, PayloadNone, false},
	CmdSwitchOff:      {CmdSwitchOff, "DISPLAY_SWITCHOFF", 0, 0, PayloadNone, false},
	CmdSetStyle:       {CmdSetStyle, "DISPLAY_SETSTYLE", 1, 0, PayloadByte, false},
	CmdSetInvers:      {CmdSetInvers, "DISPLAY_SETINVERS", 1, 0, PayloadByte, false},
	CmdSetForeColor:   {CmdSetForeColor, "DISPLAY_SETFORECOLOR", 2, 0, PayloadColor, false},
	CmdSetBackColor:   {CmdSetBackColor, "DISPLAY_SETBACKCOLOR", 2, 0, PayloadColor, false},
	CmdSetFontType:    {CmdSetFontType, "DISPLAY_SETFONTTYPE", 1, 0, PayloadByte, false},
	CmdSetPixel:       {CmdSetPixel, "DISPLAY_SETPIXEL", 0, 0, PayloadNone, false},
	CmdMoveTo:         {CmdMoveTo, "DISPLAY_MOVETO", 4, 0, PayloadCoordinates, false},
	CmdLineTo:         {CmdLineTo, "DISPLAY_LINETO", 4, 0, PayloadCoordinates, false},
	CmdDrawRect:       {CmdDrawRect, "DISPLAY_DRAWRECT", 8, 0, PayloadRectangle, false},
	CmdDrawArc:        {CmdDrawArc, "DISPLAY_DRAWARC", 6, 0, PayloadCircle, false},
	CmdDrawRoundRect:  {CmdDrawRoundRect, "DISPLAY_DRAWROUNDRECT", 10, 0, PayloadRoundRectangle, false},
	CmdDrawSymbol:     {CmdDrawSymbol, "DISPLAY_DRAWSYMBOL", 6, 0, PayloadSymbol, false},
	CmdDeleteSymbol:   {CmdDeleteSymbol, "DISPLAY_DELETESYMBOL", 6, 0, PayloadSymbol, false},
	CmdSetXY:          {CmdSetXY, "DISPLAY_SETXY", 4, 0, PayloadCoordinates, false},
	CmdPutC:           {CmdPutC, "DISPLAY_PUTC", 1, 0, PayloadByte, false},
	CmdPrint:          {CmdPrint, "DISPLAY_PRINT", Variable, 0, PayloadString, false},
	CmdPrintXY:        {CmdPrintXY, "DISPLAY_PRINTXY", Variable, 4, PayloadTextAt, false},
	CmdPutCRot:        {CmdPutCRot, "DISPLAY_PUTCROT", 3, 0, PayloadCharRotated, false},
	CmdPrintRot:       {CmdPrintRot, "DISPLAY_PRINTROT", Variable, 2, PayloadTextRotated, false},
	CmdCalibrateTouch: {CmdCalibrateTouch, "DISPLAY_CALIBRATETOUCH", 0, 0, PayloadNone, false},
	CmdSyncNow:        {CmdSyncNow, "DISPLAY_SYNCNOW", 2, 0, PayloadShort, false},
	CmdSetBacklight:   {CmdSetBacklight, "DISPLAY_SETBACKLIGHT", 1, 0, PayloadByte, false},
	CmdSetBuzzer:      {CmdSetBuzzer, "DISPLAY_SETBUZZER", 2, 0, PayloadShort, false},
	CmdSetClick:       {CmdSetClick, "DISPLAY_SETCLICK", 1, 0, PayloadByte, false},
	CmdSetButton:      {CmdSetButton, "DISPLAY_SETBUTTON", 9, 0, PayloadButton, false},
	CmdDelButton:      {CmdDelButton, "DISPLAY_DELBUTTON", 1, 0, PayloadByte, false},
	CmdSetTempOffsets: {CmdSetTempOffsets, "DISPLAY_SETTEMPOFFSETS", 4, 0, PayloadCoordinates, false},

	CmdGetSystem:        {CmdGetSystem, "SYSTEM_GETSYSTEM", 0, 0, PayloadNone, true},
	CmdGoSystem:         {CmdGoSystem, "SYSTEM_GOSYSTEM", 0, 0, PayloadNone, true},
	CmdClearID:          {CmdClearID, "SYSTEM_CLEARID", 0, 0, PayloadNone, true},
	CmdGetResourceInfo:  {CmdGetResourceInfo, "SYSTEM_GETRESOURCEINFO", 0, 0, PayloadNone, true},
	CmdEraseResource:    {CmdEraseResource, "SYSTEM_ERASERESOURCE", 0, 0, PayloadNone, true},
	CmdFlashResource:    {CmdFlashResource, "SYSTEM_FLASHRESOURCE", 0, 0, PayloadNone, true},
	CmdActivateResource: {CmdActivateResource, "SYSTEM_ACTIVATERESOURCE", 4, 0, PayloadInt, true},
	CmdSetConfig:        {CmdSetConfig, "SYSTEM_SETCONFIG", 4, 0, PayloadInt, true},
	CmdClearApp:         {CmdClearApp, "SYSTEM_CLEARAPP", 0, 0, PayloadNone, true},
	CmdFlashApp:         {CmdFlashApp, "SYSTEM_FLASHAPP", 0, 0, PayloadNone, true},
	CmdActivateApp:      {CmdActivateApp, "SYSTEM_ACTIVATEAPP", 0, 0, PayloadNone, true},
}

// Lookup returns the descriptor for id
func Lookup(id CommandID) (Descriptor, bool) {
	d, ok := descriptors[id]
	return d, ok
}

// Descriptors returns every known descriptor ordered by id
func Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(descriptors))
	for i := 0; i < 256; i++ {
		if d, ok := descriptors[CommandID(i)]; ok {
			out = append(out, d)
		}
	}
	return out
}

// String returns the protocol name of the command
func (id CommandID) String() string {
	if d, ok := descriptors[id]; ok {
		return d.Name
	}
	return fmt.Sprintf("UNKNOWN(%d)", byte(id))
}

// IsSystem reports whether the command belongs to the system family
func (id CommandID) IsSystem() bool {
	d, ok := descriptors[id]
	return ok && d.System
}

// PayloadSize returns the number of payload bytes the command occupies at the
// start of buf. For variable-length commands buf is scanned from StringOffset
// for the 0 terminator; the terminator is included in the size.
func (d Descriptor) PayloadSize(buf []byte) (int, error) {
	if d.Length != Variable {
		return d.Length, nil
	}
	if len(buf) < d.StringOffset {
		return 0, &Error{
			Type:    ErrTypeTruncated,
			Command: d.ID,
			Message: fmt.Sprintf("%s prefix needs %d bytes, %d remaining", d.Name, d.StringOffset, len(buf)),
		}
	}
	for i := d.StringOffset; i < len(buf); i++ {
		if buf[i] == 0 {
			return i + 1, nil
		}
	}
	return 0, &Error{
		Type:    ErrTypeMalformed,
		Command: d.ID,
		Offset:  len(buf),
		Message: fmt.Sprintf("%s string has no terminator", d.Name),
	}
}
