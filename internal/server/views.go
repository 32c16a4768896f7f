package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/muurk/stouch/internal/automation"
	"github.com/muurk/stouch/internal/display"
	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/session"
	"github.com/muurk/stouch/internal/version"
	"go.uber.org/zap"
)

type healthResponse struct {
	Status string       `json:"status"`
	Build  version.Info `json:"build"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type connectResponse struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

type disconnectResponse struct {
	Message   string `json:"message"`
	Confirmed bool   `json:"confirmed"`
}

type touchView struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Button int `json:"button"`
}

func newTouchView(t display.Touch) touchView {
	return touchView{X: t.X, Y: t.Y, Button: t.Button}
}

type touchResponse struct {
	Message string    `json:"message"`
	Touch   touchView `json:"touch"`
}

type statsView struct {
	PacketsReceived   int `json:"packets_received"`
	PacketsDropped    int `json:"packets_dropped"`
	ErrorReplies      int `json:"error_replies"`
	CommandsProcessed int `json:"commands_processed"`
	CommandsIgnored   int `json:"commands_ignored"`
}

type statusResponse struct {
	State       session.State `json:"state"`
	Connected   bool          `json:"connected"`
	Device      string        `json:"device,omitempty"`
	LocalAddr   string        `json:"local_addr,omitempty"`
	ConnectedAt *time.Time    `json:"connected_at,omitempty"`
	Touch       touchView     `json:"touch"`
	Config      int32         `json:"config"`
	Stats       statsView     `json:"stats"`
}

func newStatusResponse(st session.Status) statusResponse {
	resp := statusResponse{
		State:     st.State,
		Connected: st.State == session.Connected,
		Device:    st.Device,
		LocalAddr: st.LocalAddr,
		Touch:     newTouchView(st.Touch),
		Config:    st.Config,
		Stats: statsView{
			PacketsReceived:   st.Stats.PacketsReceived,
			PacketsDropped:    st.Stats.PacketsDropped,
			ErrorReplies:      st.Stats.ErrorReplies,
			CommandsProcessed: st.Stats.CommandsProcessed,
			CommandsIgnored:   st.Stats.CommandsIgnored,
		},
	}
	if resp.Connected {
		at := st.ConnectedAt
		resp.ConnectedAt = &at
	}
	return resp
}

type buttonView struct {
	ID   int `json:"id"`
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

type textView struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Text  string `json:"text"`
	Align string `json:"align"`
}

type rectView struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

type symbolView struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

// sceneView is the screen content pushed to stream clients
type sceneView struct {
	Buttons    []buttonView `json:"buttons"`
	Texts      []textView   `json:"texts"`
	Rectangles []rectView   `json:"rectangles"`
	Symbols    []symbolView `json:"symbols"`
	Touch      touchView    `json:"touch"`
	Foreground string       `json:"foreground"`
	Background string       `json:"background"`
	Checksum   int32        `json:"checksum"`
}

func newSceneView(s display.Snapshot) sceneView {
	v := sceneView{
		Buttons:    make([]buttonView, 0, len(s.Buttons)),
		Texts:      make([]textView, 0, len(s.Texts)),
		Rectangles: make([]rectView, 0, len(s.Rectangles)),
		Symbols:    make([]symbolView, 0, len(s.Symbols)),
		Touch:      newTouchView(s.Touch),
		Foreground: s.Foreground.Hex(),
		Background: s.Background.Hex(),
		Checksum:   s.Checksum,
	}
	for _, b := range s.Buttons {
		v.Buttons = append(v.Buttons, buttonView{ID: b.ID, XMin: b.XMin, YMin: b.YMin, XMax: b.XMax, YMax: b.YMax})
	}
	for _, t := range s.Texts {
		v.Texts = append(v.Texts, textView{X: t.X, Y: t.Y, Text: t.Text, Align: t.Align.String()})
	}
	for _, r := range s.Rectangles {
		v.Rectangles = append(v.Rectangles, rectView{XMin: r.XMin, YMin: r.YMin, XMax: r.XMax, YMax: r.YMax})
	}
	for _, sym := range s.Symbols {
		v.Symbols = append(v.Symbols, symbolView{ID: sym.ID, X: sym.X, Y: sym.Y})
	}
	return v
}

type stepView struct {
	Index  int    `json:"index"`
	Step   string `json:"step"`
	Detail string `json:"detail"`
}

type failureView struct {
	Index  int    `json:"index"`
	Step   string `json:"step"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

type automationResponse struct {
	OK        bool         `json:"ok"`
	Completed []stepView   `json:"completed"`
	Failure   *failureView `json:"failure,omitempty"`
}

func newAutomationResponse(res automation.Result) automationResponse {
	resp := automationResponse{
		OK:        res.OK(),
		Completed: make([]stepView, 0, len(res.Completed)),
	}
	for _, c := range res.Completed {
		resp.Completed = append(resp.Completed, stepView{Index: c.Index, Step: c.Step, Detail: c.Detail})
	}
	if f := res.Failure; f != nil {
		resp.Failure = &failureView{Index: f.Index, Step: f.Step, Kind: f.Kind.String(), Reason: f.Reason}
	}
	return resp
}

// automationStatus maps a sequence outcome to the response code
func automationStatus(res automation.Result) int {
	f := res.Failure
	switch {
	case f == nil:
		return http.StatusOK
	case f.Connect != nil:
		return f.Connect.HTTPStatus()
	case f.Kind == automation.FailLoopLimit, f.Kind == automation.FailCancelled:
		return http.StatusRequestTimeout
	default:
		// touchbutton or touchtext on something not on screen
		return http.StatusNotFound
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
