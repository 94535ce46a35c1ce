// Package cli implements the interactive TaskVault shell.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/taskvault/internal/app"
)

// CLI drives the read-eval-print loop over the application facade.
type CLI struct {
	app    *app.App
	reader *bufio.Reader
	out    io.Writer
}

func NewCLI(a *app.App) *CLI {
	return &CLI{app: a, reader: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// Run starts the shell and blocks until the user exits or stdin closes.
// Pending debounced writes are flushed and tier resources released on the
// way out.
func (c *CLI) Run(ctx context.Context) {
	defer c.app.Close(ctx)

	fmt.Fprintln(c.out, "TaskVault (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, c, c.status, scanner)
}

// status renders the prompt suffix: the account email, "demo" in demo
// mode, empty when anonymous.
func (c *CLI) status() string {
	snap := c.app.Snapshot()
	switch {
	case snap.IsDemoMode:
		return "(demo)"
	case snap.IsAuthenticated && snap.User != nil:
		return fmt.Sprintf("(%s)", snap.User.Email)
	default:
		return ""
	}
}

func (c *CLI) isLoggedIn() bool {
	return c.app.Snapshot().IsAuthenticated
}
