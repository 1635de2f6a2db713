// Package cmd wires the expand CLI: argument parsing, output-file
// handling and error reporting around the expand package.
package cmd

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/rubiojr/expand/expand"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Execute runs the expand CLI with the given version string.
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "expand",
		Usage:                  "Inline local #includes into a single C/C++ translation unit",
		Version:                version,
		ArgsUsage:              "<source-file>",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output file (default: stdout)",
			},
			&cli.StringFlag{
				Name:    "exclude",
				Aliases: []string{"e"},
				Usage:   "Regexp of include targets to leave unexpanded",
			},
		},
		Action: expandAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func expandAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("usage: expand [-o out] [-e pattern] <source-file>")
	}
	source := cmd.Args().First()

	var exclude *regexp.Regexp
	if pattern := cmd.String("exclude"); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid --exclude pattern: %w", err)
		}
		exclude = re
	}

	out := os.Stdout
	var outFile *os.File
	if path := cmd.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		outFile = f
		out = f
	}

	exp := expand.New(expand.Options{Out: out, Exclude: exclude})
	err := exp.Expand(source)
	if outFile != nil {
		// A failed close can lose buffered writes to the artifact.
		if cerr := outFile.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("writing %s: %w", outFile.Name(), cerr)
		}
	}
	return err
}

// printError writes err to stderr, in red when stderr is a terminal and
// NO_COLOR is unset.
func printError(err error) {
	msg := fmt.Sprintf("error: %v", err)
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		msg = "\x1b[31m" + msg + "\x1b[0m"
	}
	fmt.Fprintln(os.Stderr, msg)
}
