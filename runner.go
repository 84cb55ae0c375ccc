package pageflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/navigation"
)

// Runner drives a Site from line-based commands.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
//
// Commands:
//
//	go <page|href>   navigate to a page id or follow a link
//	back, forward    traverse history
//	hover <href>     preload a link target
//	pages            list the registered pages
//	quit, exit       stop
type Runner struct {
	Input  io.Reader
	Output io.Writer
	// Headless suppresses the prompt and the banner.
	Headless bool
}

// NewRunner creates a Runner reading commands from in and reporting to out.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{Input: in, Output: out}
}

// Run starts the site and executes commands until quit or end of input.
func (r *Runner) Run(ctx context.Context, site *Site) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	if err := site.Start(ctx); err != nil {
		// The server-rendered page stays usable; keep going.
		fmt.Fprintf(r.Output, "initial load failed: %v\n", err)
	}

	for {
		if !r.Headless {
			fmt.Fprintf(r.Output, "[%s] > ", site.Current())
		}

		text, err := lineReader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("input error: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		cmd, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "":
		case "quit", "exit":
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		case "go", "open":
			if err := r.open(ctx, site, arg); err != nil {
				return err
			}
		case "back":
			site.Back()
			r.status(site)
		case "forward":
			site.Forward()
			r.status(site)
		case "hover":
			site.Hover(ctx, arg)
		case "pages":
			for _, p := range site.Registry.Pages() {
				marker := " "
				if p.ID == site.Current() {
					marker = "*"
				}
				fmt.Fprintf(r.Output, "%s %-8s %-14s %s\n", marker, p.ID, p.Location, p.Title)
			}
		default:
			fmt.Fprintf(r.Output, "unknown command %q\n", cmd)
		}

		if eof {
			return nil
		}
	}
}

func (r *Runner) open(ctx context.Context, site *Site, target string) error {
	if target == "" {
		fmt.Fprintln(r.Output, "usage: go <page|href>")
		return nil
	}

	var (
		res navigation.Result
		err error
	)
	if _, ok := site.Registry.Lookup(domain.PageID(target)); ok {
		res, err = site.Navigate(ctx, domain.PageID(target))
	} else {
		res, err = site.Follow(ctx, target)
	}
	if err != nil {
		return fmt.Errorf("navigation error: %w", err)
	}

	switch res.Outcome {
	case navigation.OutcomeFallback:
		fmt.Fprintf(r.Output, "%s -> %s (full navigation: %v)\n", res.From, res.To, res.Err)
	case navigation.OutcomeExternal:
		fmt.Fprintf(r.Output, "leaving site: %s\n", res.URL)
	case navigation.OutcomeIgnored:
		fmt.Fprintf(r.Output, "%s: ignored\n", target)
	default:
		fmt.Fprintf(r.Output, "%s -> %s (%s)\n", res.From, res.To, res.Direction)
	}
	return nil
}

func (r *Runner) status(site *Site) {
	fmt.Fprintf(r.Output, "now at %s\n", site.Current())
}
