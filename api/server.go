package api

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/judgegodwins/chess-rooms/game"
	"github.com/judgegodwins/chess-rooms/http_utils"
	"github.com/judgegodwins/chess-rooms/util"
	"github.com/judgegodwins/chess-rooms/ws"
	"github.com/rs/cors"
)

type Server struct {
	config    *util.Config
	wsManager *ws.Manager
	registry  *game.Registry
	validate  *validator.Validate
	handler   http.Handler
}

func NewServer(config *util.Config, registry *game.Registry, wsManager *ws.Manager) *Server {
	server := &Server{
		config:    config,
		wsManager: wsManager,
		registry:  registry,
		validate:  validator.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", server.EntryPage)
	mux.HandleFunc("/home", server.GamePage)
	mux.HandleFunc("/rooms/status", server.RoomStatus)
	mux.HandleFunc("/ws", wsManager.ServeWS)
	mux.Handle("/frontend/", http.StripPrefix("/frontend/", http.FileServer(http.Dir("./frontend"))))

	c := cors.New(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	})

	server.handler = c.Handler(mux)

	return server
}

func (s *Server) Start() error {
	return http.ListenAndServe(fmt.Sprintf(":%v", s.config.Port), s.handler)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

type roomStatusRequest struct {
	ID string `validate:"required"`
}

// RoomStatus reports seat occupancy for a room so a client can tell
// whether it would join as a player or a spectator. Unknown rooms are
// not an error: they would be created on first join.
func (s *Server) RoomStatus(w http.ResponseWriter, r *http.Request) {
	req := roomStatusRequest{
		ID: r.URL.Query().Get("id"),
	}

	vErr := http_utils.ValidateStruct(s.validate, req)
	if !reflect.ValueOf(vErr).IsZero() {
		http_utils.SendResponse(w, http.StatusBadRequest, vErr)
		return
	}

	room, ok := s.registry.Get(req.ID)
	if !ok {
		http_utils.SendResponse(w, http.StatusOK, http_utils.DataResponse{
			BaseResponse: http_utils.NewBaseResponse(true, "room not started yet"),
			Data: map[string]any{
				"exists": false,
			},
		})
		return
	}

	white, black := room.SeatsTaken()

	http_utils.SendResponse(w, http.StatusOK, http_utils.DataResponse{
		BaseResponse: http_utils.NewBaseResponse(true, "room status"),
		Data: map[string]any{
			"exists":     true,
			"full":       white && black,
			"spectators": room.ConnCount(),
		},
	})
}
