package automation

import (
	"errors"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		token   string
		want    Action
		wantErr bool
	}{
		{"connect", Action{Kind: ActionConnect}, false},
		{"DISCONNECT", Action{Kind: ActionDisconnect}, false},
		{"none", Action{Kind: ActionNone}, false},
		{"touch=100,150", Action{Kind: ActionTouch, X: 100, Y: 150}, false},
		{"touch= 5 , 6 ", Action{Kind: ActionTouch, X: 5, Y: 6}, false},
		{"touchbutton=12", Action{Kind: ActionTouchButton, Button: 12}, false},
		{"TouchText=Menü Ebene", Action{Kind: ActionTouchText, Text: "Menü Ebene"}, false},
		{"touchtext=a=b", Action{Kind: ActionTouchText, Text: "a=b"}, false},
		{"touch", Action{}, true},
		{"touch=1", Action{}, true},
		{"touch=1,2,3", Action{}, true},
		{"touch=x,2", Action{}, true},
		{"touchbutton", Action{}, true},
		{"touchbutton=300", Action{}, true},
		{"touchbutton=-1", Action{}, true},
		{"touchtext=", Action{}, true},
		{"jump", Action{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseAction(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAction() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	seq, err := Parse([]string{
		"connect",
		"whiletext!=Ready", "doaction=touchtext=Next",
		"checkbutton==5", "thenaction=touchbutton=5", "elseaction=touch=1,2",
		"CheckText==Fehler", "thenaction=disconnect",
		"whilebutton==3", "doaction=none",
		"disconnect",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{
		"connect",
		"whiletext!=Ready&doaction=touchtext=Next",
		"checkbutton==5&thenaction=touchbutton=5&elseaction=touch=1,2",
		"checktext==Fehler&thenaction=disconnect&elseaction=none",
		"whilebutton==3&doaction=none",
		"disconnect",
	}
	if len(seq) != len(want) {
		t.Fatalf("Parse() returned %d steps, want %d: %v", len(seq), len(want), seq)
	}
	for i := range want {
		if got := seq[i].String(); got != want[i] {
			t.Errorf("step %d = %q, want %q", i, got, want[i])
		}
	}

	if c := seq[1].Condition; c.OnButton || c.Present || c.Text != "Ready" {
		t.Errorf("while condition = %+v", c)
	}
	if c := seq[2].Condition; !c.OnButton || !c.Present || c.Button != 5 {
		t.Errorf("check condition = %+v", c)
	}
	if seq[3].Else.Kind != ActionNone {
		t.Errorf("default else = %v, want none", seq[3].Else)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		tokens    []string
		wantIndex int
	}{
		{"empty", nil, 0},
		{"unknown command", []string{"connect", "fly"}, 1},
		{"while without action", []string{"whiletext==A"}, 0},
		{"while with wrong follow-up", []string{"whiletext==A", "thenaction=none"}, 0},
		{"check without then", []string{"connect", "checktext==A", "doaction=none"}, 1},
		{"bad button condition", []string{"whilebutton==x", "doaction=none"}, 0},
		{"bad nested action", []string{"checktext==A", "thenaction=touch=1"}, 0},
		{"dangling doaction", []string{"doaction=none"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.tokens)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse() error = %v, want *ParseError", err)
			}
			if pe.Index != tt.wantIndex {
				t.Errorf("ParseError.Index = %d, want %d (%v)", pe.Index, tt.wantIndex, err)
			}
		})
	}
}

func TestParseQuery(t *testing.T) {
	seq, err := ParseQuery("connect&touchtext=Warm%20Wasser&whiletext!=Bitte+warten&doaction=none&touchtext=A%26B&disconnect")
	if err != nil {
		t.Fatalf("ParseQuery() error = %v", err)
	}
	want := []string{"connect", "touchtext=Warm Wasser", "whiletext!=Bitte warten&doaction=none", "touchtext=A&B", "disconnect"}
	if len(seq) != len(want) {
		t.Fatalf("ParseQuery() = %v", seq)
	}
	for i := range want {
		if got := seq[i].String(); got != want[i] {
			t.Errorf("step %d = %q, want %q", i, got, want[i])
		}
	}

	if _, err := ParseQuery("touchtext=%zz"); err == nil {
		t.Error("ParseQuery(bad escape) error = nil")
	}
	if _, err := ParseQuery(""); err == nil {
		t.Error("ParseQuery(empty) error = nil")
	}
}
