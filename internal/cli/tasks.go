package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/taskvault/internal/state"
)

// Add creates a task from the remaining command words and schedules a
// debounced save.
func (c *CLI) Add(ctx context.Context, args []string) error {
	title := strings.Join(args, " ")
	if title == "" {
		fmt.Fprintln(c.out, "Usage: add <title>")
		return nil
	}

	s, err := c.app.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	s.Tasks = append(s.Tasks, state.Task{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: state.NewTimestamp(time.Now().UTC()),
	})
	c.app.NotifyChange(s)

	fmt.Fprintf(c.out, "Added %q\n", title)
	return nil
}

// List prints the tasks in the current namespace.
func (c *CLI) List(ctx context.Context) error {
	s, err := c.app.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	if len(s.Tasks) == 0 {
		fmt.Fprintln(c.out, "No tasks")
		return nil
	}
	for i, task := range s.Tasks {
		mark := " "
		if task.Completed {
			mark = "x"
		}
		fmt.Fprintf(c.out, "%3d [%s] %s\n", i+1, mark, task.Title)
	}
	return nil
}

// Done marks the task at the given 1-based position complete and updates
// the analytics counters.
func (c *CLI) Done(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "Usage: done <number>")
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(c.out, "Usage: done <number>")
		return nil
	}

	s, err := c.app.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if n < 1 || n > len(s.Tasks) {
		fmt.Fprintf(c.out, "No task %d\n", n)
		return nil
	}

	task := &s.Tasks[n-1]
	if !task.Completed {
		now := state.NewTimestamp(time.Now().UTC())
		task.Completed = true
		task.CompletedAt = &now
		s.Analytics.TasksCompleted++
		s.Analytics.LastActive = &now
	}
	c.app.NotifyChange(s)

	fmt.Fprintf(c.out, "Done: %s\n", task.Title)
	return nil
}

// Status reports the probed environment and tier ordering in effect.
func (c *CLI) Status(ctx context.Context) error {
	env := c.app.Environment()
	strat := c.app.Strategy()

	fmt.Fprintf(c.out, "os: %s mobile: %v\n", env.OS, env.Mobile)
	fmt.Fprintf(c.out, "tiers: durable=%v ephemeral=%v structured=%v minimal=%v\n",
		env.DurableOK, env.EphemeralOK, env.StructuredOK, env.MinimalOK)
	fmt.Fprintf(c.out, "order: %v max payload: %d bytes\n", strat.Order(), strat.MaxPayloadBytes)
	return nil
}

// ClearData wipes the task state across every namespace after
// confirmation.
func (c *CLI) ClearData(ctx context.Context) error {
	answer, err := getSimpleText(c.reader, "Remove all stored task data? (yes/no)", c.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Fprintln(c.out, "Cancelled")
		return nil
	}
	c.app.ClearState(ctx)
	fmt.Fprintln(c.out, "All task data removed")
	return nil
}
