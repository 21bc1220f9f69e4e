package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skomatsu/workchat/internal/chat"
	"github.com/skomatsu/workchat/internal/config"
	"github.com/skomatsu/workchat/internal/database"
	"github.com/skomatsu/workchat/internal/server"
	"github.com/skomatsu/workchat/internal/stats"
	"github.com/skomatsu/workchat/internal/testutil"
	"github.com/skomatsu/workchat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// findCookie returns the named cookie from the response recorder, or nil.
func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func newTestApp(t *testing.T, mockRepo database.WorkChatRepository, cs *server.ChatServer) *WorkChatApp {
	return NewWorkChatApp(http.NewServeMux(), testutil.TestLogger(t), cs, mockRepo, nil, &config.Config{
		SigningKey: []byte("test-signing-key"),
	})
}

func newTestChatServer(t *testing.T, mockRepo database.WorkChatRepository) *server.ChatServer {
	mockStats := &stats.MockStatsUpdater{}
	mockStats.On("RegisterMetric", mock.AnythingOfType("string")).Return()

	cs, err := server.NewChatServer(testutil.TestLogger(t), mockRepo, mockStats)
	if err != nil {
		t.Fatalf("failed to create chat server: %v", err)
	}
	return cs
}

func authedRequest(method, target string, body *bytes.Buffer, userId int) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(WithUserId(req.Context(), userId))
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	return bytes.NewBuffer(body)
}

func Test_healthCheck(t *testing.T) {
	tcases := []struct {
		name    string
		mockErr error
	}{
		{
			name:    "successful health check",
			mockErr: nil,
		},
		{
			name:    "failed health check",
			mockErr: errors.New("db error"),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockWorkChatRepository{}
			defer mockRepo.AssertExpectations(t)
			mockRepo.On("Ping").Return(tc.mockErr).Once()

			app := newTestApp(t, mockRepo, nil)
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/healthz", &bytes.Buffer{})
			app.healthCheck(rr, req)

			if tc.mockErr != nil {
				assert.Equal(t, http.StatusInternalServerError, rr.Code)
			} else {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.Equal(t, "OK", rr.Body.String())
			}
		})
	}
}

func TestRegisterHandler(t *testing.T) {
	validReq := chat.RegisterParams{
		Name:       "Taro Yamada",
		Password:   "password",
		Email:      "taro@example.com",
		EmployeeId: "ee123456",
	}

	tcases := []struct {
		name        string
		body        any
		mockErr     error
		wantStoreOp bool
		wantCode    int
	}{
		{
			name:        "successfully registers",
			body:        validReq,
			wantStoreOp: true,
			wantCode:    http.StatusCreated,
		},
		{
			name:     "fails with invalid json body",
			body:     "invalid json",
			wantCode: http.StatusBadRequest,
		},
		{
			name: "fails with malformed employee id",
			body: chat.RegisterParams{
				Name:       validReq.Name,
				Password:   validReq.Password,
				Email:      validReq.Email,
				EmployeeId: "e1234567",
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:        "fails with db error",
			body:        validReq,
			mockErr:     errors.New("db error"),
			wantStoreOp: true,
			wantCode:    http.StatusInternalServerError,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockWorkChatRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.wantStoreOp {
				mockRepo.On("CreateUser", mock.AnythingOfType("database.CreateUserParams")).
					Return(database.User{
						Id:         1,
						Name:       validReq.Name,
						Email:      validReq.Email,
						EmployeeId: validReq.EmployeeId,
					}, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo, nil)

			var req *http.Request
			switch v := tc.body.(type) {
			case string:
				req = httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(v))
			default:
				req = httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, v))
			}

			rr := httptest.NewRecorder()
			app.register(rr, req)

			assert.Equal(t, tc.wantCode, rr.Code)
			if tc.wantCode == http.StatusCreated {
				var user types.User
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
				assert.Equal(t, 1, user.Id)
				assert.Equal(t, validReq.Email, user.Email)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	storedUser := database.User{
		Id:       3,
		Name:     "Taro Yamada",
		Email:    "taro@example.com",
		Password: "password",
	}

	tcases := []struct {
		name       string
		body       LoginRequest
		mockErr    error
		wantCode   int
		wantCookie bool
	}{
		{
			name:       "successful login sets session cookie",
			body:       LoginRequest{Email: storedUser.Email, Password: "password"},
			wantCode:   http.StatusOK,
			wantCookie: true,
		},
		{
			name:     "wrong password is unauthorized",
			body:     LoginRequest{Email: storedUser.Email, Password: "nope"},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "unknown email is not found",
			body:     LoginRequest{Email: storedUser.Email, Password: "password"},
			mockErr:  sql.ErrNoRows,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "missing credentials are rejected",
			body:     LoginRequest{},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockWorkChatRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.body.Email != "" {
				mockUser := storedUser
				if tc.mockErr != nil {
					mockUser = database.User{}
				}
				mockRepo.On("GetUserByEmail", tc.body.Email).Return(mockUser, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo, nil)
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, tc.body))
			app.login(rr, req)

			assert.Equal(t, tc.wantCode, rr.Code)

			cookie := findCookie(rr, tokenCookieKey)
			if tc.wantCookie {
				assert.NotNil(t, cookie, "expected session cookie to be set")
				assert.NotEmpty(t, cookie.Value)
			} else {
				assert.Nil(t, cookie, "expected no session cookie")
			}
		})
	}
}

func TestUpdateAccountHandler(t *testing.T) {
	adminUser := database.User{Id: 1, Name: "Admin", EmployeeStatus: chat.StatusManager}
	staffUser := database.User{Id: 7, Name: "Staff", EmployeeStatus: chat.StatusStaff}

	t.Run("rename updates own account", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("UpdateUserName", staffUser.Id, "New Name").Return(nil).Once()
		mockRepo.On("GetUserById", staffUser.Id).
			Return(database.User{Id: staffUser.Id, Name: "New Name"}, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/account", jsonBody(t, UpdateAccountRequest{
			Action: actionUpdateName,
			Name:   "New Name",
		}), staffUser.Id)
		app.updateAccount(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var u types.User
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
		assert.Equal(t, "New Name", u.Name)
	})

	t.Run("password change updates own account", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("UpdateUserPassword", staffUser.Id, "secret").Return(nil).Once()
		mockRepo.On("GetUserById", staffUser.Id).Return(staffUser, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/account", jsonBody(t, UpdateAccountRequest{
			Action:          actionUpdatePassword,
			Password:        "secret",
			PasswordConfirm: "secret",
		}), staffUser.Id)
		app.updateAccount(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("mismatched password confirmation is rejected", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/account", jsonBody(t, UpdateAccountRequest{
			Action:          actionUpdatePassword,
			Password:        "secret",
			PasswordConfirm: "other",
		}), staffUser.Id)
		app.updateAccount(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockRepo.AssertNotCalled(t, "UpdateUserPassword", mock.Anything, mock.Anything)
	})

	t.Run("status change requires admin", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUserById", staffUser.Id).Return(staffUser, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/account", jsonBody(t, UpdateAccountRequest{
			Action:         actionUpdateStatus,
			EmployeeStatus: "1",
			UserId:         2,
		}), staffUser.Id)
		app.updateAccount(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockRepo.AssertNotCalled(t, "UpdateUserStatus", mock.Anything, mock.Anything)
	})

	t.Run("admin changes another user's status", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUserById", adminUser.Id).Return(adminUser, nil).Once()
		mockRepo.On("UpdateUserStatus", staffUser.Id, 1).Return(nil).Once()
		mockRepo.On("GetUserById", staffUser.Id).
			Return(database.User{Id: staffUser.Id, Name: staffUser.Name, EmployeeStatus: 1}, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/account", jsonBody(t, UpdateAccountRequest{
			Action:         actionUpdateStatus,
			EmployeeStatus: "1",
			UserId:         staffUser.Id,
		}), adminUser.Id)
		app.updateAccount(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var u types.User
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
		assert.Equal(t, 1, u.EmployeeStatus)
	})

	t.Run("admin cannot assign a status above the cap", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUserById", adminUser.Id).Return(adminUser, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/account", jsonBody(t, UpdateAccountRequest{
			Action:         actionUpdateStatus,
			EmployeeStatus: "3",
			UserId:         staffUser.Id,
		}), adminUser.Id)
		app.updateAccount(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockRepo.AssertNotCalled(t, "UpdateUserStatus", mock.Anything, mock.Anything)
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/account", jsonBody(t, UpdateAccountRequest{
			Action: "update_email",
		}), staffUser.Id)
		app.updateAccount(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, mockRepo.Calls)
	})
}

func TestListUsersHandler(t *testing.T) {
	t.Run("admin lists users", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUserById", 1).
			Return(database.User{Id: 1, EmployeeStatus: chat.StatusExec}, nil).Once()
		mockRepo.On("ListUsers").Return([]database.User{
			{Id: 1, Name: "Admin"},
			{Id: 2, Name: "Staff"},
		}, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.listUsers(rr, authedRequest(http.MethodGet, "/api/users", nil, 1))

		assert.Equal(t, http.StatusOK, rr.Code)

		var users []types.User
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&users))
		assert.Len(t, users, 2)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUserById", 2).
			Return(database.User{Id: 2, EmployeeStatus: chat.StatusSenior}, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.listUsers(rr, authedRequest(http.MethodGet, "/api/users", nil, 2))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockRepo.AssertNotCalled(t, "ListUsers")
	})
}

func TestDeleteUserHandler(t *testing.T) {
	t.Run("admin deletes a user and their memberships", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUserById", 1).
			Return(database.User{Id: 1, EmployeeStatus: chat.StatusManager}, nil).Once()
		mockRepo.On("DeleteMembershipsByUser", 7).Return(nil).Once()
		mockRepo.On("DeleteUser", 7).Return(nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.deleteUser(rr, authedRequest(http.MethodDelete, "/api/users?id=7", nil, 1))

		assert.Equal(t, http.StatusNoContent, rr.Code)
		mockRepo.AssertNotCalled(t, "DeleteMessagesByRoom", mock.Anything)
	})

	t.Run("missing id is rejected", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUserById", 1).
			Return(database.User{Id: 1, EmployeeStatus: chat.StatusManager}, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.deleteUser(rr, authedRequest(http.MethodDelete, "/api/users", nil, 1))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCreateRoomHandler(t *testing.T) {
	t.Run("admin creates a room", func(t *testing.T) {
		admin := database.User{Id: 1, Name: "Admin", EmployeeStatus: chat.StatusManager}

		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUserById", admin.Id).Return(admin, nil).Twice()
		mockRepo.On("CreateRoom", mock.MatchedBy(func(p database.CreateRoomParams) bool {
			return p.Name == "general" && p.LeaderName == admin.Name
		})).Return(database.Room{
			Id:         1,
			ExternalId: "abc123",
			Name:       "general",
			LeaderName: admin.Name,
		}, nil).Once()
		mockRepo.On("CreateMembership", admin.Id, 1).
			Return(database.UserRoom{Id: 1, UserId: admin.Id, RoomId: 1}, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/rooms", jsonBody(t, CreateRoomRequest{Name: "general"}), admin.Id)
		app.createRoom(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var room types.Room
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&room))
		assert.Equal(t, "general", room.Name)
		assert.Equal(t, admin.Name, room.LeaderName)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUserById", 2).
			Return(database.User{Id: 2, EmployeeStatus: chat.StatusStaff}, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/rooms", jsonBody(t, CreateRoomRequest{Name: "general"}), 2)
		app.createRoom(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockRepo.AssertNotCalled(t, "CreateRoom", mock.Anything)
	})
}

func TestDeleteRoomHandler(t *testing.T) {
	leader := database.User{Id: 2, Name: "Hanako Sato"}
	room := database.Room{Id: 4, ExternalId: "abc123", Name: "general", LeaderName: leader.Name}

	t.Run("leader deletes the room", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetRoomByExternalId", room.ExternalId).Return(room, nil).Once()
		mockRepo.On("GetUserById", leader.Id).Return(leader, nil).Once()
		mockRepo.On("GetRoomById", room.Id).Return(room, nil).Once()
		mockRepo.On("DeleteMembershipsByRoom", room.Id).Return(nil).Once()
		mockRepo.On("DeleteMessagesByRoom", room.Id).Return(nil).Once()
		mockRepo.On("DeleteRoom", room.Id).Return(nil).Once()

		app := newTestApp(t, mockRepo, newTestChatServer(t, mockRepo))
		rr := httptest.NewRecorder()
		app.deleteRoom(rr, authedRequest(http.MethodDelete, "/api/rooms?id=abc123", nil, leader.Id))

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("non-leader is forbidden", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetRoomByExternalId", room.ExternalId).Return(room, nil).Once()
		mockRepo.On("GetUserById", 9).Return(database.User{Id: 9, Name: "Other"}, nil).Once()
		mockRepo.On("GetRoomById", room.Id).Return(room, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.deleteRoom(rr, authedRequest(http.MethodDelete, "/api/rooms?id=abc123", nil, 9))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockRepo.AssertNotCalled(t, "DeleteRoom", mock.Anything)
	})

	t.Run("missing room is not found", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetRoomByExternalId", "nope").Return(database.Room{}, sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.deleteRoom(rr, authedRequest(http.MethodDelete, "/api/rooms?id=nope", nil, leader.Id))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestJoinRoomHandler(t *testing.T) {
	room := database.Room{Id: 4, ExternalId: "abc123", Name: "general"}

	mockRepo := &database.MockWorkChatRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetRoomByExternalId", room.ExternalId).Return(room, nil).Once()
	mockRepo.On("CreateMembership", 2, room.Id).
		Return(database.UserRoom{Id: 1, UserId: 2, RoomId: room.Id}, nil).Once()

	app := newTestApp(t, mockRepo, nil)
	rr := httptest.NewRecorder()
	app.joinRoom(rr, authedRequest(http.MethodPost, "/api/rooms/join?id=abc123", nil, 2))

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestLeaveRoomHandler(t *testing.T) {
	room := database.Room{Id: 4, ExternalId: "abc123", Name: "general"}

	mockRepo := &database.MockWorkChatRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetRoomByExternalId", room.ExternalId).Return(room, nil).Once()
	mockRepo.On("DeleteMembership", 2, room.Id).Return(nil).Once()

	app := newTestApp(t, mockRepo, nil)
	rr := httptest.NewRecorder()
	app.leaveRoom(rr, authedRequest(http.MethodPost, "/api/rooms/leave?id=abc123", nil, 2))

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestGetMessagesHandler(t *testing.T) {
	room := database.Room{Id: 4, ExternalId: "abc123", Name: "general"}

	t.Run("member reads the room's messages", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetRoomByExternalId", room.ExternalId).Return(room, nil).Once()
		mockRepo.On("MembershipExists", 2, room.Id).Return(true).Once()
		mockRepo.On("ListMessagesByRoom", room.Id).Return([]database.UserMessage{
			{Id: 1, RoomId: room.Id, UserId: 2, Message: "hello", CreatedAt: time.Now().UTC()},
		}, nil).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.getMessages(rr, authedRequest(http.MethodGet, "/api/messages?room_id=abc123", nil, 2))

		assert.Equal(t, http.StatusOK, rr.Code)

		var messages []types.Message
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&messages))
		assert.Len(t, messages, 1)
		assert.Equal(t, "hello", messages[0].Message)
	})

	t.Run("non-member is forbidden", func(t *testing.T) {
		mockRepo := &database.MockWorkChatRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetRoomByExternalId", room.ExternalId).Return(room, nil).Once()
		mockRepo.On("MembershipExists", 9, room.Id).Return(false).Once()

		app := newTestApp(t, mockRepo, nil)
		rr := httptest.NewRecorder()
		app.getMessages(rr, authedRequest(http.MethodGet, "/api/messages?room_id=abc123", nil, 9))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockRepo.AssertNotCalled(t, "ListMessagesByRoom", mock.Anything)
	})
}
