package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/chatex/pkg/chatex"
)

// printlnFn and printFn are test seams for stdout.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		printlnFn("Error:", err)
		return
	}
	printlnFn(string(out))
}

// describeError renders err for the terminal, adding the hints a user can
// act on.
func describeError(err error) string {
	var apiErr *chatex.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case chatex.KindRateLimited:
			return fmt.Sprintf("%s (retry after %ds)", err, apiErr.RetryAfter)
		case chatex.KindUnauthorized:
			return fmt.Sprintf("%s (check the API key)", err)
		}
	}
	return err.Error()
}

// scanLines feeds scanner lines into the returned channel until EOF or stop
// is closed. The channel is closed on EOF.
func scanLines(scanner *bufio.Scanner, stop <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
	}()
	return lines
}

// runREPL reads commands from scanner until exit, EOF or ctx is cancelled.
// Cancellation ends the loop at once, even while waiting for input.
func runREPL(ctx context.Context, a *App, scanner *bufio.Scanner) {
	printlnFn("Chatex CLI (type 'help' for commands)")

	stop := make(chan struct{})
	defer close(stop)
	lines := scanLines(scanner, stop)

	for {
		if ctx.Err() != nil {
			printlnFn("Bye!")
			return
		}
		printFn("chatex> ")

		var line string
		select {
		case <-ctx.Done():
			printlnFn()
			printlnFn("Bye!")
			return
		case l, ok := <-lines:
			if !ok {
				printlnFn()
				return
			}
			line = l
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		res, err := a.exec(ctx, cmd, args)
		switch {
		case errors.Is(err, errUnknownCommand):
			printlnFn("Unknown command:", cmd)
		case err != nil:
			a.logger.Debug(ctx, "command failed", "command", cmd, "error", err)
			printlnFn("Error:", describeError(err))
		default:
			printJSON(res)
		}
	}
}
