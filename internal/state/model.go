// Package state defines the persisted application state tree and the
// serialization boundary around it: the timestamp-tagged wire format, the
// mandatory-field checks, and the integrity guard that decides whether a
// loaded payload can be trusted.
package state

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a time.Time that serializes as a tagged object:
//
//	{"tag":"timestamp","value":"2024-12-15T12:00:00Z"}
//
// The tag lets the deserializer tell timestamp leaves apart from ordinary
// strings anywhere in the state tree. Equality is by instant, not by
// textual form.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t as a state timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

type taggedTimestamp struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(taggedTimestamp{
		Tag:   "timestamp",
		Value: t.Time.UTC().Format(time.RFC3339Nano),
	})
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tagged taggedTimestamp
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("timestamp leaf: %w", err)
	}
	if tagged.Tag != "timestamp" {
		return fmt.Errorf("timestamp leaf: unexpected tag %q", tagged.Tag)
	}
	parsed, err := time.Parse(time.RFC3339Nano, tagged.Value)
	if err != nil {
		return fmt.Errorf("timestamp leaf: %w", err)
	}
	t.Time = parsed
	return nil
}

// Task is a single tracked item.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority,omitempty"`
	ProjectID   string     `json:"projectId,omitempty"`
	DueDate     *Timestamp `json:"dueDate,omitempty"`
	CreatedAt   Timestamp  `json:"createdAt"`
	CompletedAt *Timestamp `json:"completedAt,omitempty"`
}

// Project groups tasks.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Goal is a longer-horizon objective with a progress percentage.
type Goal struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Progress   int        `json:"progress"`
	TargetDate *Timestamp `json:"targetDate,omitempty"`
	CreatedAt  Timestamp  `json:"createdAt"`
}

// Analytics is the derived productivity block. It is persisted rather than
// recomputed so streaks survive reloads.
type Analytics struct {
	TasksCompleted   int            `json:"tasksCompleted"`
	CurrentStreak    int            `json:"currentStreak"`
	LongestStreak    int            `json:"longestStreak"`
	CompletionsByDay map[string]int `json:"completionsByDay,omitempty"`
	LastActive       *Timestamp     `json:"lastActive,omitempty"`
}

// Settings holds user preferences.
type Settings struct {
	Theme                string `json:"theme"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	WeekStartsMonday     bool   `json:"weekStartsMonday"`
}

// User is the public view of an account: no hash, no salt.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthState is the authentication snapshot embedded in the state tree and
// persisted redundantly by the auth-state cache. The two flags drive
// namespace derivation, so their shape is validated on every load.
type AuthState struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
	IsDemoMode      bool  `json:"isDemoMode"`
}

// AppState is the full persisted application state tree. Exactly one
// instance exists per namespace.
type AppState struct {
	Tasks            []Task    `json:"tasks"`
	Projects         []Project `json:"projects"`
	Goals            []Goal    `json:"goals"`
	Analytics        Analytics `json:"analytics"`
	SearchQuery      string    `json:"searchQuery"`
	SelectedProject  string    `json:"selectedProject"`
	SelectedPriority string    `json:"selectedPriority"`
	Settings         Settings  `json:"settings"`
	Auth             AuthState `json:"authentication"`
}

// NewAppState returns an empty but well-formed state tree.
func NewAppState() *AppState {
	return &AppState{
		Tasks:    []Task{},
		Projects: []Project{},
		Goals:    []Goal{},
		Settings: Settings{Theme: "light", NotificationsEnabled: true},
	}
}
