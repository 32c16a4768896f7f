package display

import (
	"github.com/muurk/stouch/internal/protocol"
)

// Apply executes one ordinary display command. It reports false when the
// command is not a display command or its handler failed; the session then
// answers the packet with an error reply.
func (m *Model) Apply(cmd protocol.Command) bool {
	m.mu.Lock()
	changed, ok := m.apply(cmd)
	m.mu.Unlock()
	if changed {
		m.notify()
	}
	return ok
}

func (m *Model) apply(cmd protocol.Command) (changed, ok bool) {
	switch c := cmd.(type) {
	case protocol.Bare:
		switch c.Cmd {
		case protocol.CmdSwitchOn:
			m.settings.On = true
		case protocol.CmdSwitchOff:
			m.settings.On = false
		case protocol.CmdSetPixel, protocol.CmdCalibrateTouch:
		default:
			return false, false
		}
		return false, true

	case protocol.ByteParam:
		switch c.Cmd {
		case protocol.CmdSetStyle:
			m.style = c.Value
		case protocol.CmdSetInvers:
			m.settings.Inverse = c.Value
		case protocol.CmdSetFontType:
			m.settings.FontType = c.Value
		case protocol.CmdSetBacklight:
			m.settings.Backlight = c.Value
		case protocol.CmdSetClick:
			m.settings.Click = c.Value
		case protocol.CmdPutC:
			m.addText(protocol.TextAt{X: m.cursor.X, Y: m.cursor.Y, Text: protocol.DecodeChar(byte(c.Value))})
			return true, true
		case protocol.CmdDelButton:
			m.deleteButton(c.Value)
			return true, true
		default:
			return false, false
		}
		return false, true

	case protocol.ShortParam:
		switch c.Cmd {
		case protocol.CmdSyncNow:
			m.settings.SyncNow = c.Value
		case protocol.CmdSetBuzzer:
			m.settings.Buzzer = c.Value
		default:
			return false, false
		}
		return false, true

	case protocol.ColorParam:
		switch c.Cmd {
		case protocol.CmdSetForeColor:
			m.fg = c.Color
		case protocol.CmdSetBackColor:
			m.bg = c.Color
		default:
			return false, false
		}
		return false, true

	case protocol.Position:
		switch c.Cmd {
		case protocol.CmdMoveTo, protocol.CmdLineTo, protocol.CmdSetXY:
			m.cursor = c.Coordinates
		case protocol.CmdSetTempOffsets:
			m.settings.TempOffsets = c.Coordinates
		default:
			return false, false
		}
		return false, true

	case protocol.SymbolParam:
		switch c.Cmd {
		case protocol.CmdDrawSymbol:
			m.symbols[c.Symbol] = struct{}{}
		case protocol.CmdDeleteSymbol:
			delete(m.symbols, c.Symbol)
		default:
			return false, false
		}
		return true, true

	case protocol.Rotated:
		m.addText(protocol.TextAt{X: m.cursor.X, Y: m.cursor.Y, Text: c.Text})
		return true, true

	case protocol.DrawRect:
		m.drawRect(c.Rectangle)
		return true, true

	case protocol.DrawRoundRect:
		m.drawRect(c.Rectangle)
		return true, true

	case protocol.DrawArc:
		return false, true

	case protocol.Print:
		m.addText(protocol.TextAt{X: m.cursor.X, Y: m.cursor.Y, Text: c.Text})
		return true, true

	case protocol.PrintXY:
		m.addText(c.TextAt)
		return true, true

	case protocol.SetButton:
		m.addButton(c.Button)
		return true, true
	}
	return false, false
}
