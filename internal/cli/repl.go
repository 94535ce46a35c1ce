package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it
// with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real CLI type satisfies this interface; tests can provide a
// lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Demo(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Passwd(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Add(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Done(ctx context.Context, args []string) error
	Status(ctx context.Context) error
	ClearData(ctx context.Context) error
}

// runREPL reads a line, takes the first token as the command and
// dispatches to methods on 'a'. Handler errors are reported by the
// handlers themselves; the loop only exits on EOF, "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("taskvault %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: add, (l)ist, done, status, whoami, passwd, clear, logout, exit")
			} else {
				printlnFn("Available commands: register, login, demo, add, (l)ist, done, status, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "demo":
			_ = a.Demo(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "passwd":
			_ = a.Passwd(ctx)

		case "deleteaccount":
			_ = a.DeleteAccount(ctx)

		case "add":
			_ = a.Add(ctx, args)

		case "l", "list":
			_ = a.List(ctx)

		case "done":
			_ = a.Done(ctx, args)

		case "status":
			_ = a.Status(ctx)

		case "clear":
			_ = a.ClearData(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
