package tui

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandKind is a console command typed on the panel screen
type CommandKind int

const (
	CmdTouch CommandKind = iota
	CmdButton
	CmdText
	CmdConnect
	CmdDisconnect
	CmdQuit
)

// Command is a parsed console line
type Command struct {
	Kind   CommandKind
	X, Y   int
	Button int
	Text   string
}

// ParseCommand parses one console line:
//
//	touch X,Y | button N | text T | connect | disconnect | quit
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "touch", "t":
		xs, ys, ok := strings.Cut(arg, ",")
		if !ok {
			return Command{}, fmt.Errorf("usage: touch X,Y")
		}
		x, errX := strconv.Atoi(strings.TrimSpace(xs))
		y, errY := strconv.Atoi(strings.TrimSpace(ys))
		if errX != nil || errY != nil {
			return Command{}, fmt.Errorf("invalid coordinates %q", arg)
		}
		return Command{Kind: CmdTouch, X: x, Y: y}, nil

	case "button", "b":
		id, err := strconv.Atoi(arg)
		if err != nil || id < 0 || id > 255 {
			return Command{}, fmt.Errorf("invalid button id %q", arg)
		}
		return Command{Kind: CmdButton, Button: id}, nil

	case "text":
		if arg == "" {
			return Command{}, fmt.Errorf("usage: text LABEL")
		}
		return Command{Kind: CmdText, Text: arg}, nil

	case "connect":
		return Command{Kind: CmdConnect}, nil
	case "disconnect":
		return Command{Kind: CmdDisconnect}, nil
	case "quit", "exit", "q":
		return Command{Kind: CmdQuit}, nil

	case "":
		return Command{}, fmt.Errorf("empty command")
	default:
		return Command{}, fmt.Errorf("unknown command %q", name)
	}
}
