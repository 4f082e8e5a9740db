package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/browser"
	"github.com/TanaroSch/page-regex-replace/internal/popup"
)

func newSessionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "session [page|glob]...",
		Short: "Interactive popup: apply and undo against pages held in memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pages, err := browser.ExpandPages(args)
			if err != nil {
				return err
			}
			b := browser.New(browser.WithEngineFactory(e.engineFactory()))
			for _, p := range pages {
				if _, err := b.Open(ctx, p); err != nil {
					return err
				}
			}
			c, st, err := e.openController(ctx, b)
			if err != nil {
				return err
			}
			defer closeStore(ctx, st)

			return runSession(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), b, c)
		},
	}
}

const sessionHelp = `commands:
  apply          Replace All on the active tab
  undo           undo the last Replace All on the active tab
  tabs           list open tabs
  tab N          make tab N active
  open PAGE      open a page in a new tab
  reload         reload the active tab (clears its undo history)
  show           print the active tab's HTML
  diff           show the last change
  save           write the active tab back to its file
  rules          list the saved pairs
  quit           leave the session`

// runSession reads commands line by line until quit or end of input.
func runSession(ctx context.Context, in io.Reader, out io.Writer, b *browser.Browser, c *popup.Controller) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	fmt.Fprintln(out, headColor.Sprint("pagereplace session; type help for commands"))
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, arg := fields[0], strings.TrimSpace(strings.TrimPrefix(scanner.Text(), fields[0]))

		switch cmd {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			fmt.Fprintln(out, sessionHelp)
		case "apply":
			printStatus(out, "", c.ReplaceAll(ctx))
		case "undo":
			printStatus(out, "", c.Undo(ctx))
		case "tabs":
			printTabs(out, b)
		case "tab":
			id, err := strconv.Atoi(arg)
			if err != nil {
				printError(out, errors.Errorf("tab expects a number, got %q", arg))
				continue
			}
			if err := b.Activate(browser.TabID(id)); err != nil {
				printError(out, err)
				continue
			}
			printTabs(out, b)
		case "open":
			if _, err := b.Open(ctx, arg); err != nil {
				printError(out, err)
				continue
			}
			printTabs(out, b)
		case "reload":
			withActive(out, b, func(t *browser.Tab) error { return b.Reload(ctx, t.ID()) })
		case "show":
			withActive(out, b, func(t *browser.Tab) error {
				html, err := t.HTML()
				if err == nil {
					fmt.Fprintln(out, html)
				}
				return err
			})
		case "save":
			withActive(out, b, func(t *browser.Tab) error {
				if err := t.Save(); err != nil {
					return err
				}
				fmt.Fprintln(out, okColor.Sprint("saved "+t.Path()))
				return nil
			})
		case "diff":
			if change, ok := c.LastChange(); ok {
				printDiff(out, change)
			} else {
				fmt.Fprintln(out, dimColor.Sprint("no change to show"))
			}
		case "rules":
			printPairs(out, c.Pairs())
		default:
			printError(out, errors.Errorf("unknown command %q; type help", cmd))
		}
	}
}

func withActive(out io.Writer, b *browser.Browser, fn func(t *browser.Tab) error) {
	t, err := b.ActiveTab()
	if err == nil {
		err = fn(t)
	}
	if err != nil {
		printError(out, err)
	}
}

func printError(out io.Writer, err error) {
	printStatus(out, "", popup.Status{Message: "Error: " + err.Error(), IsError: true})
}

func printTabs(out io.Writer, b *browser.Browser) {
	active := browser.TabID(0)
	if t, err := b.ActiveTab(); err == nil {
		active = t.ID()
	}
	tabs := b.Tabs()
	if len(tabs) == 0 {
		fmt.Fprintln(out, dimColor.Sprint("no open tabs"))
		return
	}
	for _, t := range tabs {
		marker := " "
		if t.ID() == active {
			marker = "*"
		}
		fmt.Fprintf(out, "%s [%d] %s\n", marker, t.ID(), t.URL())
	}
}
