// Package mockapi is an in-process stand-in for the task-management backend.
// It backs the mock-API feature flag and the test suite: the full REST
// surface, JWT session issuance and the websocket push endpoint.
package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"taskclient/internal/logger"
	"taskclient/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const tokenTTL = 24 * time.Hour

type contextKey string

const userKey contextKey = "mockapi_user"

type Server struct {
	store    *Store
	hub      *Hub
	secret   []byte
	upgrader websocket.Upgrader
}

func New(secret string) *Server {
	return &Server{
		store:  NewStore(),
		hub:    NewHub(),
		secret: []byte(secret),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler builds the full route tree, CORS-wrapped like the real backend.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleMe)
			r.Post("/refresh", s.handleRefresh)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Get("/due-soon", s.handleDueSoon)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetTask)
				r.Put("/", s.handleUpdateTask)
				r.Delete("/", s.handleDeleteTask)
			})
		})

		r.Get("/api/users", s.handleListUsers)

		r.Route("/api/comments", func(r chi.Router) {
			r.Post("/", s.handleCreateComment)
			r.Get("/task/{taskId}", s.handleListComments)
			r.Put("/{id}", s.handleUpdateComment)
			r.Delete("/{id}", s.handleDeleteComment)
		})

		r.Route("/api/activities", func(r chi.Router) {
			r.Post("/", s.handleCreateActivity)
			r.Get("/task/{taskId}", s.handleListActivities)
		})
	})

	r.Get("/ws", s.handleWS)

	return cors.AllowAll().Handler(r)
}

// --- auth ---

func (s *Server) mintToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.Username,
		"uid": user.ID,
		"exp": jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		"iat": jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) userFromToken(tokenString string) (models.User, bool) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return models.User{}, false
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return models.User{}, false
	}
	return s.store.UserByUsername(sub)
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.userFromToken(bearerToken(r))
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func currentUser(r *http.Request) models.User {
	u, _ := r.Context().Value(userKey).(models.User)
	return u
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	user, ok := s.store.Authenticate(req.Username, req.Password)
	if !ok {
		writeError(w, http.StatusUnauthorized, "bad credentials")
		return
	}
	s.respondAuth(w, user)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}
	user, ok := s.store.CreateUser(req.Username, req.Email, req.Password, req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, "username or email already taken")
		return
	}
	s.respondAuth(w, user)
}

func (s *Server) respondAuth(w http.ResponseWriter, user models.User) {
	token, err := s.mintToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token minting failed")
		return
	}
	writeJSON(w, http.StatusOK, models.AuthResponse{Token: token, Type: "Bearer", User: &user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, err := s.mintToken(currentUser(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token minting failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "type": "Bearer"})
}

// --- tasks ---

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var assigneeID *int64
	if v := q.Get("assigneeId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid assigneeId")
			return
		}
		assigneeID = &id
	}
	tasks := s.store.Tasks(models.TaskStatus(q.Get("status")), assigneeID, q.Get("unassigned") == "true")
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req models.TaskCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	task := s.store.CreateTask(req, currentUser(r).ID)

	event := models.TaskEvent{Action: models.ActionCreated, Task: &task, TaskID: task.ID}
	s.hub.Publish(TopicTasks, event)
	// Assigned tasks are also pushed on the assignee's personal queue; the
	// client dedups the overlap with the shared topic.
	if task.AssigneeID != nil {
		if assignee, ok := s.userByID(*task.AssigneeID); ok {
			s.hub.PublishToUser(assignee.Username, TopicUserQueue, event)
		}
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	task, found := s.store.TaskByID(id)
	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	task, found := s.store.UpdateTask(id, req)
	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	s.hub.Publish(TopicTasks, models.TaskEvent{Action: models.ActionUpdated, Task: &task, TaskID: task.ID})
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	task, found := s.store.TaskByID(id)
	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	actor := currentUser(r)
	if actor.ID != task.CreatorID && actor.Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "only the creator can delete a task")
		return
	}
	s.store.DeleteTask(id)
	s.hub.Publish(TopicTasks, models.TaskEvent{Action: models.ActionDeleted, TaskID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDueSoon(w http.ResponseWriter, r *http.Request) {
	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil || minutes <= 0 {
		minutes = 30
	}
	writeJSON(w, http.StatusOK, s.store.TasksDueWithin(time.Duration(minutes)*time.Minute))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Users())
}

// --- comments ---

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req models.CommentCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if _, found := s.store.TaskByID(req.TaskID); !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	actor := currentUser(r)
	comment := s.store.CreateComment(req.TaskID, actor.ID, actor.Username, req.Content)
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.store.CommentsByTask(taskID))
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	comment, found := s.store.CommentByID(id)
	if !found {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	if comment.AuthorID != currentUser(r).ID {
		writeError(w, http.StatusForbidden, "only the author can edit a comment")
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	updated, _ := s.store.UpdateComment(id, body.Content)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	comment, found := s.store.CommentByID(id)
	if !found {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	if comment.AuthorID != currentUser(r).ID {
		writeError(w, http.StatusForbidden, "only the author can delete a comment")
		return
	}
	s.store.DeleteComment(id)
	w.WriteHeader(http.StatusNoContent)
}

// --- activities ---

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var req models.Activity
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TaskID == 0 {
		writeError(w, http.StatusBadRequest, "taskId is required")
		return
	}
	writeJSON(w, http.StatusCreated, s.store.AppendActivity(req))
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.store.ActivitiesByTask(taskID))
}

// --- push ---

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userFromToken(bearerToken(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sub := &subscriber{conn: conn, username: user.Username, topics: make(map[string]bool)}
	s.hub.register(sub)
	defer func() {
		s.hub.unregister(sub)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame subscribeFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Type == "SUBSCRIBE" && frame.Destination != "" {
			sub.subscribe(frame.Destination)
			logger.Debug("mockapi: subscription",
				zap.String("username", user.Username),
				zap.String("topic", frame.Destination))
		}
	}
}

// --- helpers ---

// Topic names shared with the client channel.
const (
	TopicTasks         = "/topic/tasks"
	TopicNotifications = "/topic/notifications"
	TopicUserQueue     = "/user/queue/notifications"
)

func (s *Server) userByID(id int64) (models.User, bool) {
	for _, u := range s.store.Users() {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
