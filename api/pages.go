package api

import (
	"html/template"
	"net/http"

	"github.com/judgegodwins/chess-rooms/logger"
	"go.uber.org/zap"
)

var entryTemplate = template.Must(template.New("entry").Parse(`<!DOCTYPE html>
<html>
<head><title>Chess Rooms</title></head>
<body>
  <h1>Chess Rooms</h1>
  <form action="/home" method="get">
    <input name="roomId" placeholder="Room name" required />
    <button type="submit">Play</button>
  </form>
</body>
</html>`))

var gameTemplate = template.Must(template.New("game").Parse(`<!DOCTYPE html>
<html>
<head><title>Chess Room — {{.RoomID}}</title></head>
<body>
  <div id="board" data-room-id="{{.RoomID}}"></div>
  <div id="captured"></div>
  <script src="/frontend/game.js"></script>
</body>
</html>`))

// EntryPage renders the room-entry form.
func (s *Server) EntryPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if err := entryTemplate.Execute(w, nil); err != nil {
		logger.L().Error("render entry page", zap.Error(err))
	}
}

// GamePage renders the board page for a room. A missing roomId sends
// the client back to the entry page instead of joining nothing.
func (s *Server) GamePage(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")

	if roomID == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	err := gameTemplate.Execute(w, struct{ RoomID string }{RoomID: roomID})
	if err != nil {
		logger.L().Error("render game page", zap.Error(err))
	}
}
