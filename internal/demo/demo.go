// Package demo owns the demo trust domain: the fixed demo identity, the
// seeded demo content, and the heuristic that recognizes demo-shaped
// payloads during migration.
package demo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/state"
)

// The demo identity is fixed so demo data can be recognized after the
// fact. Changing these values orphans previously seeded demo state.
const (
	UserID    = "demo-user"
	UserName  = "Demo User"
	UserEmail = "demo@taskvault.app"
)

// TaskTitles are the seeded demo task titles. The migration classifier
// keys off them, so edits here must keep the old titles recognizable.
var TaskTitles = []string{
	"Review weekly goals",
	"Plan tomorrow's schedule",
	"Try marking a task complete",
	"Explore project views",
}

// DemoUser returns the fixed demo account.
func DemoUser() *state.User {
	return &state.User{ID: UserID, Email: UserEmail, Name: UserName}
}

// Seed builds a fresh demo state tree anchored at now.
func Seed(now time.Time) *state.AppState {
	created := state.NewTimestamp(now)
	due := state.NewTimestamp(now.Add(24 * time.Hour))

	s := state.NewAppState()
	s.Projects = []state.Project{
		{ID: "demo-project", Name: "Getting Started", Color: "#4f8ef7", CreatedAt: created},
	}
	for i, title := range TaskTitles {
		task := state.Task{
			ID:        fmt.Sprintf("demo-task-%d", i+1),
			Title:     title,
			Priority:  "medium",
			ProjectID: "demo-project",
			CreatedAt: created,
		}
		if i == 0 {
			task.DueDate = &due
			task.Priority = "high"
		}
		s.Tasks = append(s.Tasks, task)
	}
	s.Goals = []state.Goal{
		{ID: "demo-goal", Title: "Finish the tour", Progress: 0, CreatedAt: created},
	}
	s.Auth = state.AuthState{
		User:            DemoUser(),
		IsAuthenticated: true,
		IsDemoMode:      true,
	}
	return s
}

// LooksLikeDemo reports whether a raw payload is recognizably demo data:
// the demo flag is set, the demo identity appears in the authentication
// block, or any task carries a known demo title.
//
// This is a heuristic, kept deliberately narrow. Content that drifts from
// these markers will be classified as real data, which is the safe
// direction: real data is never deleted, only left in place.
func LooksLikeDemo(raw []byte) bool {
	var probe struct {
		Tasks []struct {
			Title string `json:"title"`
		} `json:"tasks"`
		Auth struct {
			User *struct {
				Email string `json:"email"`
				Name  string `json:"name"`
			} `json:"user"`
			IsDemoMode bool `json:"isDemoMode"`
		} `json:"authentication"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}

	if probe.Auth.IsDemoMode {
		return true
	}
	if u := probe.Auth.User; u != nil && (u.Email == UserEmail || u.Name == UserName) {
		return true
	}

	known := make(map[string]struct{}, len(TaskTitles))
	for _, title := range TaskTitles {
		known[title] = struct{}{}
	}
	for _, task := range probe.Tasks {
		if _, ok := known[task.Title]; ok {
			return true
		}
	}
	return false
}
