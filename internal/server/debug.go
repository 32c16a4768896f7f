package server

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/render"
	"go.uber.org/zap"
)

// debugPage shows the screen and turns clicks into touches. Each click is
// appended to the page URL as touch=x,y so the history doubles as a
// recording for automation sequences.
var debugPage = template.Must(template.New("debug").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>S-Touch Emulator Debug Screen</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; background-color: #f4f4f4; color: #333; }
        img { border: 2px solid #333; cursor: crosshair; background-color: #fff; }
        #coordinates { margin-top: 10px; padding: 8px; background-color: #eee; border: 1px solid #ddd; display: inline-block; }
        #protocol { margin-top: 20px; padding: 10px; background-color: #fff; border: 1px solid #ddd; max-height: 200px; overflow-y: auto; }
        #protocol ul { list-style-type: none; padding-left: 0; }
    </style>
</head>
<body>
    <h3>S-Touch Interactive Screen</h3>
    <img id="image" width="{{.Width}}" height="{{.Height}}" src="{{.Image}}" alt="S-Touch Screen Image">
    <p id="coordinates">Mouse Coordinates: (x: -, y: -)</p>
    <div id="protocol">
        <h4>Click Protocol:</h4>
        <ul id="protocolList">
{{- range .Touches}}
            <li>touch={{.X}},{{.Y}}</li>
{{- end}}
        </ul>
    </div>
    <script>
        const image = document.getElementById('image');
        const coordinates = document.getElementById('coordinates');
        function position(event) {
            const rect = image.getBoundingClientRect();
            return [Math.round(event.clientX - rect.left), Math.round(event.clientY - rect.top)];
        }
        image.addEventListener('mousemove', function(event) {
            const [x, y] = position(event);
            coordinates.textContent = 'Mouse Coordinates: (x: ' + x + ', y: ' + y + ')';
        });
        image.addEventListener('mouseleave', function() {
            coordinates.textContent = 'Mouse Coordinates: (x: -, y: -)';
        });
        image.addEventListener('click', function(event) {
            const [x, y] = position(event);
            fetch('touch?x=' + x + '&y=' + y, { method: 'POST' })
                .then(function(response) {
                    if (!response.ok) { console.error('Touch failed:', response.statusText); }
                    setTimeout(function() {
                        const url = new URL(window.location.href);
                        url.searchParams.append('touch', x + ',' + y);
                        window.location.href = url.toString();
                    }, 500);
                })
                .catch(function(error) { console.error('Error sending touch:', error); });
        });
    </script>
</body>
</html>
`))

type touchPoint struct {
	X, Y int
}

type debugPageData struct {
	Width   int
	Height  int
	Image   template.URL
	Touches []touchPoint
}

// parseTouchHistory parses the touch=x,y entries of the debug page URL
func parseTouchHistory(values []string) ([]touchPoint, error) {
	points := make([]touchPoint, 0, len(values))
	for _, v := range values {
		xs, ys, ok := strings.Cut(v, ",")
		if !ok {
			return nil, fmt.Errorf("invalid coordinate format %q, expected 'x,y'", v)
		}
		x, errX := strconv.Atoi(strings.TrimSpace(xs))
		y, errY := strconv.Atoi(strings.TrimSpace(ys))
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("invalid number in coordinate %q", v)
		}
		points = append(points, touchPoint{X: x, Y: y})
	}
	return points, nil
}

func (s *Server) handleDebugScreen(w http.ResponseWriter, r *http.Request) {
	touches, err := parseTouchHistory(r.URL.Query()["touch"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Error parsing 'touch' query parameters: "+err.Error())
		return
	}

	img, err := render.PNGBytes(s.panel.Display().Snapshot())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing image for debug screen: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = debugPage.Execute(w, debugPageData{
		Width:   render.Width,
		Height:  render.Height,
		Image:   template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img)),
		Touches: touches,
	})
	if err != nil {
		logging.Warn("Failed to render debug page", zap.Error(err))
	}
}
