package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL needs. The real App satisfies
// it; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	SignUp(ctx context.Context) error
	SignIn(ctx context.Context) error
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error
	Add(ctx context.Context) error
	List(ctx context.Context) error
	AttachReceipt(ctx context.Context, args []string) error
	Receipts(ctx context.Context, args []string) error
}

// dispatch runs one command. It returns false when the command asks to quit.
// Command errors are printed and otherwise ignored.
func dispatch(ctx context.Context, a execIface, parts []string, w io.Writer) bool {
	cmd, args := parts[0], parts[1:]

	var err error
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			fmt.Fprintln(w, "Available commands: add, (l)ist, receipt <tx-id> <image>, receipts <tx-id>, refresh, logout, exit")
		} else {
			fmt.Fprintln(w, "Available commands: signup, signin, exit")
		}
	case "signup", "register":
		err = a.SignUp(ctx)
	case "signin", "login":
		err = a.SignIn(ctx)
	case "logout":
		err = a.Logout(ctx)
	case "refresh":
		err = a.Refresh(ctx)
	case "add":
		err = a.Add(ctx)
	case "l", "list":
		err = a.List(ctx)
	case "receipt":
		err = a.AttachReceipt(ctx, args)
	case "receipts":
		err = a.Receipts(ctx, args)
	case "exit", "quit":
		fmt.Fprintln(w, "Bye!")
		return false
	default:
		fmt.Fprintln(w, "Unknown command:", cmd)
	}

	if err != nil {
		fmt.Fprintln(w, "Error:", err)
	}
	return true
}

// runREPL reads commands from scanner until EOF, "exit" or "quit". The
// prompt shows statusFn's current value.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, w io.Writer) {
	for {
		fmt.Fprintf(w, "sk %s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		if !dispatch(ctx, a, parts, w) {
			return
		}
	}
}
