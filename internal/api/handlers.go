package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/skomatsu/workchat/internal/chat"
	"github.com/skomatsu/workchat/internal/server"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Account update actions. The action string is decoded once, here at the
// boundary, into a typed chat.UpdateIntent.
const (
	actionUpdateName     = "update_name"
	actionUpdatePassword = "update_password"
	actionUpdateStatus   = "update_status"
)

type UpdateAccountRequest struct {
	Action          string `json:"action"`
	Name            string `json:"name,omitempty"`
	Password        string `json:"password,omitempty"`
	PasswordConfirm string `json:"password_confirmation,omitempty"`
	EmployeeStatus  string `json:"employee_status,omitempty"`
	UserId          int    `json:"user_id,omitempty"`
}

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type UpdateRoomRequest struct {
	Name       string `json:"name,omitempty"`
	LeaderName string `json:"leader_name,omitempty"`
}

func (s *WorkChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

// errorResponse maps the chat package's error taxonomy onto HTTP responses.
func (s *WorkChatApp) errorResponse(err error) *ApiError {
	var verr *chat.ValidationError
	var aerr *chat.AuthorizationError
	switch {
	case errors.As(err, &verr):
		return NewBadRequestError()
	case errors.As(err, &aerr):
		return NewForbiddenError()
	case errors.Is(err, chat.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return NewNotFoundError()
	default:
		return NewInternalServerError(err)
	}
}

func (s *WorkChatApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *WorkChatApp) register(w http.ResponseWriter, r *http.Request) {
	var req chat.RegisterParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newUser, err := s.users.Register(req)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, newUser)
}

func (s *WorkChatApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Email == "" || lr.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	u, err := s.users.Authenticate(lr.Email, lr.Password)
	if err != nil {
		var errResp *ApiError
		var aerr *chat.AuthorizationError
		if errors.As(err, &aerr) {
			errResp = NewUnauthorizedError()
		} else {
			errResp = s.errorResponse(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.createJwtForSession(u, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))

	s.writeJson(w, http.StatusOK, u)
}

func (s *WorkChatApp) logout(w http.ResponseWriter, _ *http.Request) {
	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createJwtCookie("", time.Duration(time.Unix(0, 0).Unix())))
	w.WriteHeader(http.StatusNoContent)
}

func (s *WorkChatApp) session(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	u, err := s.users.Get(userId)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, u)
}

func (s *WorkChatApp) updateAccount(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	targetId := userId
	var intent chat.UpdateIntent
	switch req.Action {
	case actionUpdateName:
		intent = chat.RenameIntent{Name: req.Name}
	case actionUpdatePassword:
		intent = chat.ChangePasswordIntent{Password: req.Password, Confirm: req.PasswordConfirm}
	case actionUpdateStatus:
		// status changes target another user and require the admin tier
		if !s.users.IsAdmin(userId) {
			errResp := NewForbiddenError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		if req.UserId != 0 {
			targetId = req.UserId
		}
		intent = chat.ChangeStatusIntent{Status: req.EmployeeStatus}
	default:
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.users.Update(targetId, intent); err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	u, err := s.users.Get(targetId)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, u)
}

func (s *WorkChatApp) listUsers(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.users.IsAdmin(userId) {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	users, err := s.users.List()
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, users)
}

func (s *WorkChatApp) deleteUser(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.users.IsAdmin(userId) {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	targetId, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.users.Delete(targetId); err != nil {
		s.log.Println("delete user:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *WorkChatApp) getUsersRooms(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	memberships, err := s.memberships.ListRooms(userId)
	if err != nil {
		s.log.Println("list memberships:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, memberships)
}

func (s *WorkChatApp) createRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.memberships.CanCreateRoom(userId) {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	leader, err := s.users.Get(userId)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.rooms.Create(req.Name, leader)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, room)
}

func (s *WorkChatApp) updateRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.rooms.GetByExternalId(externalId)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.rooms.IsLeader(userId, room.Id) {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.rooms.Update(room.Id, req.Name, req.LeaderName)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, updated)
}

func (s *WorkChatApp) deleteRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.rooms.GetByExternalId(externalId)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.rooms.IsLeader(userId, room.Id) {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.rooms.Delete(room.Id); err != nil {
		s.log.Println("delete room:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.cs.UnloadRoom(room.ExternalId, true)

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *WorkChatApp) joinRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.rooms.GetByExternalId(externalId)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.memberships.Join(userId, room.Id); err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, room)
}

func (s *WorkChatApp) leaveRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.rooms.GetByExternalId(externalId)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.memberships.Leave(userId, room.Id); err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *WorkChatApp) getMessages(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := r.URL.Query().Get("room_id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.rooms.GetByExternalId(externalId)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.memberships.Exists(userId, room.Id) {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages, err := s.messages.ListMessages(room.Id)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, messages)
}

func (s *WorkChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.users.Get(userId)
	if err != nil {
		errResp := s.errorResponse(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(user, conn, s.cs, s.log)

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}
