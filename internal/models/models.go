package models

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// User is an immutable snapshot of the authenticated account, replaced
// wholesale on every fetch of /api/auth/me.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task is owned by the backend; the client holds a possibly stale copy that
// is reconciled by the next fetch or real-time event.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	AssigneeID  *int64     `json:"assigneeId,omitempty"`
	CreatorID   int64      `json:"creatorId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type Comment struct {
	ID             int64     `json:"id"`
	Content        string    `json:"content"`
	TaskID         int64     `json:"taskId"`
	AuthorID       int64     `json:"authorId"`
	AuthorUsername string    `json:"authorUsername,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ActivityType string

const (
	ActivityCreated       ActivityType = "CREATED"
	ActivityUpdated       ActivityType = "UPDATED"
	ActivityStatusChanged ActivityType = "STATUS_CHANGED"
	ActivityComment       ActivityType = "COMMENT"
)

// Activity is an append-only audit entry. Entries recorded while the backend
// endpoint is unavailable live only in the local fallback log.
type Activity struct {
	ID        int64        `json:"id,omitempty"`
	TaskID    int64        `json:"taskId"`
	Type      ActivityType `json:"type"`
	ActorID   *int64       `json:"actorId,omitempty"`
	ActorName string       `json:"actorName,omitempty"`
	Detail    string       `json:"detail,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// AuthResponse is the body returned by login, register and refresh.
type AuthResponse struct {
	Token string `json:"token"`
	Type  string `json:"type"`
	User  *User  `json:"user,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

type TaskCreate struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	AssigneeID  *int64     `json:"assigneeId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type TaskUpdate struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	AssigneeID  *int64     `json:"assigneeId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type CommentCreate struct {
	TaskID  int64  `json:"taskId"`
	Content string `json:"content"`
}

type TaskAction string

const (
	ActionCreated TaskAction = "CREATED"
	ActionUpdated TaskAction = "UPDATED"
	ActionDeleted TaskAction = "DELETED"
)

// TaskEvent is the push-channel payload for task mutations. Delete events may
// carry only the id when the full task is no longer available.
type TaskEvent struct {
	Action TaskAction `json:"action"`
	Task   *Task      `json:"task,omitempty"`
	TaskID int64      `json:"taskId,omitempty"`
}

// Key returns the task id identifying the logical event, or 0 when the
// payload carries neither a task nor an id.
func (e TaskEvent) Key() int64 {
	if e.Task != nil && e.Task.ID != 0 {
		return e.Task.ID
	}
	return e.TaskID
}

// Notification is a non-task push message, e.g. a due-soon reminder.
type Notification struct {
	Type       string     `json:"type"`
	TaskID     int64      `json:"taskId,omitempty"`
	Title      string     `json:"title,omitempty"`
	AssigneeID *int64     `json:"assigneeId,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
}
