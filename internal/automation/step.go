package automation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ActionKind identifies a primitive automation command
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionConnect
	ActionDisconnect
	ActionTouch
	ActionTouchButton
	ActionTouchText
)

var actionNames = map[string]ActionKind{
	"none":        ActionNone,
	"connect":     ActionConnect,
	"disconnect":  ActionDisconnect,
	"touch":       ActionTouch,
	"touchbutton": ActionTouchButton,
	"touchtext":   ActionTouchText,
}

func (k ActionKind) String() string {
	for name, kind := range actionNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// Action is one primitive command
type Action struct {
	Kind   ActionKind
	X, Y   int
	Button int
	Text   string
}

func (a Action) String() string {
	switch a.Kind {
	case ActionTouch:
		return fmt.Sprintf("touch=%d,%d", a.X, a.Y)
	case ActionTouchButton:
		return fmt.Sprintf("touchbutton=%d", a.Button)
	case ActionTouchText:
		return "touchtext=" + a.Text
	default:
		return a.Kind.String()
	}
}

// ParseAction parses "connect", "disconnect", "none", "touch=x,y",
// "touchbutton=id" or "touchtext=text". Command names are case-insensitive.
func ParseAction(token string) (Action, error) {
	key, value, hasValue := strings.Cut(token, "=")
	kind, ok := actionNames[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Action{}, fmt.Errorf("unknown command %q", key)
	}

	a := Action{Kind: kind}
	switch kind {
	case ActionTouch:
		if !hasValue {
			return Action{}, fmt.Errorf("missing coordinates for %s", key)
		}
		xs, ys, ok := strings.Cut(value, ",")
		if !ok || strings.Contains(ys, ",") {
			return Action{}, fmt.Errorf("invalid coordinate format %q, want x,y", value)
		}
		var err error
		if a.X, err = strconv.Atoi(strings.TrimSpace(xs)); err != nil {
			return Action{}, fmt.Errorf("invalid x coordinate %q", xs)
		}
		if a.Y, err = strconv.Atoi(strings.TrimSpace(ys)); err != nil {
			return Action{}, fmt.Errorf("invalid y coordinate %q", ys)
		}
	case ActionTouchButton:
		if !hasValue {
			return Action{}, fmt.Errorf("missing button id for %s", key)
		}
		id, err := parseButtonID(value)
		if err != nil {
			return Action{}, err
		}
		a.Button = id
	case ActionTouchText:
		if !hasValue || value == "" {
			return Action{}, fmt.Errorf("missing text for %s", key)
		}
		a.Text = value
	}
	return a, nil
}

func parseButtonID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 0 || id > 255 {
		return 0, fmt.Errorf("invalid button id %q", s)
	}
	return id, nil
}

// Condition tests whether a text or button is (not) on screen
type Condition struct {
	OnButton bool
	Text     string
	Button   int
	// Present is true for "==" and false for "!="
	Present bool
}

func (c Condition) String() string {
	op := "=="
	if !c.Present {
		op = "!="
	}
	if c.OnButton {
		return fmt.Sprintf("button%s%d", op, c.Button)
	}
	return "text" + op + c.Text
}

// Holds evaluates the condition against the device's screen
func (c Condition) Holds(d Device) bool {
	var shown bool
	if c.OnButton {
		shown = d.HasButton(c.Button)
	} else {
		shown = d.HasText(c.Text)
	}
	return shown == c.Present
}

// StepKind distinguishes primitive steps from loops and branches
type StepKind int

const (
	StepAction StepKind = iota
	StepWhile
	StepCheck
)

// Step is one element of a sequence. Action holds the primitive for
// StepAction and the repeated action for StepWhile; Then and Else are used
// by StepCheck.
type Step struct {
	Kind      StepKind
	Action    Action
	Condition Condition
	Then      Action
	Else      Action
}

func (s Step) String() string {
	switch s.Kind {
	case StepWhile:
		return fmt.Sprintf("while%s&doaction=%s", s.Condition, s.Action)
	case StepCheck:
		return fmt.Sprintf("check%s&thenaction=%s&elseaction=%s", s.Condition, s.Then, s.Else)
	default:
		return s.Action.String()
	}
}

// Sequence is an ordered list of steps
type Sequence []Step

// ParseError reports the token that could not be parsed
type ParseError struct {
	Index int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("token %d (%q): %v", e.Index, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// conditional prefixes, matched case-insensitively
var conditionals = []struct {
	prefix   string
	kind     StepKind
	onButton bool
	present  bool
}{
	{"whiletext==", StepWhile, false, true},
	{"whiletext!=", StepWhile, false, false},
	{"whilebutton==", StepWhile, true, true},
	{"whilebutton!=", StepWhile, true, false},
	{"checktext==", StepCheck, false, true},
	{"checktext!=", StepCheck, false, false},
	{"checkbutton==", StepCheck, true, true},
	{"checkbutton!=", StepCheck, true, false},
}

// cutPrefixFold is strings.CutPrefix ignoring ASCII case in the prefix
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// Parse builds a sequence from decoded tokens such as
//
//	connect touchtext=Menu whiletext!=Ready doaction=none checkbutton==5 thenaction=touchbutton=5 disconnect
//
// A while token must be followed by doaction=, a check token by thenaction=
// and optionally elseaction=, which defaults to none.
func Parse(tokens []string) (Sequence, error) {
	if len(tokens) == 0 {
		return nil, &ParseError{Index: 0, Err: fmt.Errorf("no automation commands provided")}
	}

	var seq Sequence
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		step, consumed, err := parseStep(tokens, i)
		if err != nil {
			return nil, &ParseError{Index: i, Token: tok, Err: err}
		}
		seq = append(seq, step)
		i += consumed
	}
	return seq, nil
}

// parseStep parses the step starting at tokens[i] and returns how many
// follow-up tokens it consumed
func parseStep(tokens []string, i int) (Step, int, error) {
	tok := tokens[i]
	for _, c := range conditionals {
		value, ok := cutPrefixFold(tok, c.prefix)
		if !ok {
			continue
		}
		cond := Condition{OnButton: c.onButton, Present: c.present}
		if c.onButton {
			id, err := parseButtonID(value)
			if err != nil {
				return Step{}, 0, err
			}
			cond.Button = id
		} else {
			cond.Text = value
		}

		if c.kind == StepWhile {
			action, err := followUp(tokens, i+1, "doaction=", tok)
			if err != nil {
				return Step{}, 0, err
			}
			return Step{Kind: StepWhile, Condition: cond, Action: action}, 1, nil
		}

		then, err := followUp(tokens, i+1, "thenaction=", tok)
		if err != nil {
			return Step{}, 0, err
		}
		step := Step{Kind: StepCheck, Condition: cond, Then: then, Else: Action{Kind: ActionNone}}
		if i+2 < len(tokens) {
			if _, ok := cutPrefixFold(tokens[i+2], "elseaction="); ok {
				if step.Else, err = followUp(tokens, i+2, "elseaction=", tok); err != nil {
					return Step{}, 0, err
				}
				return step, 2, nil
			}
		}
		return step, 1, nil
	}

	action, err := ParseAction(tok)
	if err != nil {
		return Step{}, 0, err
	}
	return Step{Kind: StepAction, Action: action}, 0, nil
}

func followUp(tokens []string, i int, prefix, owner string) (Action, error) {
	if i >= len(tokens) {
		return Action{}, fmt.Errorf("missing %s for %s", strings.TrimSuffix(prefix, "="), owner)
	}
	value, ok := cutPrefixFold(tokens[i], prefix)
	if !ok {
		return Action{}, fmt.Errorf("missing %s for %s", strings.TrimSuffix(prefix, "="), owner)
	}
	return ParseAction(value)
}

// ParseQuery splits a raw URL query on '&' and decodes each token, keeping
// the order. Values may contain encoded '&' and '=' characters.
func ParseQuery(rawQuery string) (Sequence, error) {
	var tokens []string
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		tok, err := url.QueryUnescape(part)
		if err != nil {
			return nil, &ParseError{Index: len(tokens), Token: part, Err: err}
		}
		tokens = append(tokens, tok)
	}
	return Parse(tokens)
}
