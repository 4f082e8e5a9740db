package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/browser"
	"github.com/TanaroSch/page-regex-replace/internal/popup"
	"github.com/TanaroSch/page-regex-replace/internal/rules"
)

func newRulesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Edit the saved find/replace pairs",
	}

	// withController runs fn against the saved pairs. Rule editing needs no
	// open tabs.
	withController := func(cmd *cobra.Command, fn func(c *popup.Controller) error) error {
		ctx := cmd.Context()
		c, st, err := e.openController(ctx, browser.New())
		if err != nil {
			return err
		}
		defer closeStore(ctx, st)
		return fn(c)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the saved pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withController(cmd, func(c *popup.Controller) error {
				printPairs(cmd.OutOrStdout(), c.Pairs())
				return nil
			})
		},
	}

	var rule rules.Rule
	add := &cobra.Command{
		Use:   "add <find> [replace]",
		Short: "Append a pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := rule
			r.Find = args[0]
			if len(args) == 2 {
				r.Replace = args[1]
			}
			return withController(cmd, func(c *popup.Controller) error {
				pairs := c.Pairs()
				var err error
				if len(pairs) == 1 && pairs[0].Rule == (rules.Rule{}) {
					err = c.UpdatePair(cmd.Context(), 0, r)
				} else {
					err = c.AddPair(cmd.Context(), r)
				}
				if err != nil {
					return err
				}
				printPairs(cmd.OutOrStdout(), c.Pairs())
				return nil
			})
		},
	}
	add.Flags().BoolVarP(&rule.CaseSensitive, "case-sensitive", "s", false, "match case")
	add.Flags().BoolVarP(&rule.UseRegex, "regex", "r", false, "treat find as a regular expression")

	remove := &cobra.Command{
		Use:   "remove <number>",
		Short: "Remove pair #number (the last pair is cleared instead)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
			if err != nil {
				return errors.Errorf("invalid pair number %q", args[0])
			}
			return withController(cmd, func(c *popup.Controller) error {
				removed, err := c.RemovePair(cmd.Context(), n-1)
				if err != nil {
					return err
				}
				if !removed {
					if err := c.UpdatePair(cmd.Context(), 0, rules.Rule{}); err != nil {
						return err
					}
				}
				printPairs(cmd.OutOrStdout(), c.Pairs())
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withController(cmd, func(c *popup.Controller) error {
				return c.SetPairs(cmd.Context(), nil)
			})
		},
	}

	var format string
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the saved pairs with those in a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.WithStack(err)
			}
			defer f.Close()
			set, err := rules.Decode(f, formatFor(args[0], format))
			if err != nil {
				return err
			}
			return withController(cmd, func(c *popup.Controller) error {
				if err := c.SetPairs(cmd.Context(), set); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okColor.Sprintf("imported %d pair(s)", len(set)))
				return nil
			})
		},
	}
	importCmd.Flags().StringVarP(&format, "format", "f", "", "yaml or json (default: from file extension)")

	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the saved pairs as YAML or JSON (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd, func(c *popup.Controller) error {
				set := make(rules.Set, 0)
				for _, p := range c.Pairs() {
					set = append(set, p.Rule)
				}
				if len(args) == 0 {
					return rules.Encode(cmd.OutOrStdout(), set, formatFor("", format))
				}
				f, err := os.Create(args[0])
				if err != nil {
					return errors.WithStack(err)
				}
				if err := rules.Encode(f, set, formatFor(args[0], format)); err != nil {
					_ = f.Close()
					return err
				}
				return errors.WithStack(f.Close())
			})
		},
	}
	exportCmd.Flags().StringVarP(&format, "format", "f", "", "yaml or json (default: from file extension, else yaml)")

	cmd.AddCommand(list, add, remove, clearCmd, importCmd, exportCmd)
	return cmd
}

// formatFor prefers an explicit format, then the file extension, then yaml.
func formatFor(path, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		return strings.ToLower(ext)
	}
	return "yaml"
}

func printPairs(out io.Writer, pairs []popup.Pair) {
	for _, p := range pairs {
		var flags []string
		if p.CaseSensitive {
			flags = append(flags, "case-sensitive")
		}
		if p.UseRegex {
			flags = append(flags, "regex")
		}
		line := fmt.Sprintf("#%d  %q → %q", p.Number, p.Find, p.Replace)
		if len(flags) > 0 {
			line += dimColor.Sprint("  [" + strings.Join(flags, ", ") + "]")
		}
		if p.Find == "" {
			line = dimColor.Sprint(line + "  (empty, skipped)")
		}
		fmt.Fprintln(out, line)
	}
}
