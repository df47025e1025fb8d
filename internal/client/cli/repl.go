package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
)

const helpText = "Available commands: (l)ist, add <path>, upload <n>, retry <n>, remove <n>, open <n>, icon <n>, exit"

// runREPL reads commands from scanner and applies them to the Tray's Items.
// It returns on EOF, on "exit" or "quit", or once ctx is done. Command
// errors are printed and the loop goes on.
func runREPL(ctx context.Context, t *Tray, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		t.print("filepicker> ")
		if !scanner.Scan() {
			t.println("")
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			t.println(helpText)

		case "l", "list":
			t.list()

		case "add":
			if len(args) == 0 {
				t.println("Usage: add <path>...")
				continue
			}
			for _, path := range args {
				if _, err := t.Add(path); err != nil {
					t.println(err.Error())
				}
			}

		case "upload", "retry", "remove", "open", "icon":
			if err := t.apply(cmd, args); err != nil {
				t.println(err.Error())
			}

		case "exit", "quit":
			t.println("Bye!")
			return

		default:
			t.println("Unknown command: " + cmd)
		}
	}
}

func (t *Tray) apply(cmd string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <n>", cmd)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("usage: %s <n>", cmd)
	}
	it, err := t.Item(n)
	if err != nil {
		return err
	}

	switch cmd {
	case "upload":
		return it.Upload()
	case "retry":
		return it.Retry()
	case "remove":
		it.Remove()
	case "open":
		it.Click()
	case "icon":
		it.ToggleIcon()
		t.println(fmt.Sprintf("[%d] icon %s", n, it.Icon()))
	}
	return nil
}

// list prints one line per Item.
func (t *Tray) list() {
	items := t.snapshot()
	if len(items) == 0 {
		t.println("No files")
		return
	}
	for _, s := range items {
		it := s.item
		line := fmt.Sprintf("[%d] %s  %s  %s  %s", s.n, it.File().Name, it.SizeLabel(), it.FileType(), it.State())
		if p, ok := it.Progress(); ok {
			line += fmt.Sprintf(" %d%%", p)
		}
		if it.Failed() {
			line += "  (" + it.Icon() + ")"
		}
		t.println(line)
	}
}
