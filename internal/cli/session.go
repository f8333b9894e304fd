package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/delmic/odemis-sub008"
	"github.com/delmic/odemis-sub008/internal/presentation/tui"
	"github.com/delmic/odemis-sub008/pkg/domain"
)

// ShellOptions configures an interactive session.
type ShellOptions struct {
	In     io.Reader
	Out    io.Writer
	Render func(string) (string, error)
	// Quiet hides the banner and the prompt.
	Quiet bool
}

const shellHelp = `Commands:
  modes                       list the modes of the instrument
  state                       show the current path state
  apply <mode> [detector]     switch the optical path to a mode
  detect <detector> [kind]    switch to the mode guessed for an acquisition
  quality <fast|best>         set the acquisition quality
  help                        show this help
  exit                        leave the session`

// RunShell reads commands from opts.In until exit, end of input or ctx is done.
// A failing command is reported and the session goes on.
func RunShell(ctx context.Context, app *App, opts ShellOptions) error {
	if opts.Render == nil {
		opts.Render = tui.NewRenderer(false)
	}
	if !opts.Quiet {
		tui.PrintBanner(opts.Out, optpath.Version)
		printSystemMessage(opts.Out, "Instrument '%s' ready. Type 'help' for commands.", app.Manager.Name)
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		scanner := bufio.NewScanner(opts.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		readErr <- err
	}()

	for {
		if !opts.Quiet {
			fmt.Fprint(opts.Out, "> ")
		}
		var line string
		select {
		case <-ctx.Done():
			return handleExecutionError(ctx.Err())
		case err := <-readErr:
			return handleExecutionError(err)
		case line = <-lines:
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			if !opts.Quiet {
				fmt.Fprintln(opts.Out, "Bye!")
			}
			return nil
		}
		if err := runCommand(ctx, app, opts, fields); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(opts.Out, "error: %v\n", err)
		}
	}
}

func runCommand(ctx context.Context, app *App, opts ShellOptions, fields []string) error {
	mgr := app.Manager
	switch cmd, args := fields[0], fields[1:]; cmd {
	case "help":
		fmt.Fprintln(opts.Out, shellHelp)
	case "modes":
		return render(opts, tui.ModesMarkdown(mgr.Table(), mgr.State().LastMode, mgr.Pruned()))
	case "state":
		return render(opts, tui.StateMarkdown(mgr.State()))
	case "quality":
		if len(args) != 1 {
			return fmt.Errorf("usage: quality <fast|best>")
		}
		q := domain.Quality(args[0])
		if q != domain.QualityFast && q != domain.QualityBest {
			return fmt.Errorf("unknown quality %q", args[0])
		}
		mgr.SetAcquisitionQuality(q)
		printSystemMessage(opts.Out, "Quality set to %s.", q)
	case "apply":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: apply <mode> [detector]")
		}
		var name string
		if len(args) == 2 {
			name = args[1]
		}
		det, err := app.Detector(name)
		if err != nil {
			return err
		}
		if err := mgr.ApplyMode(args[0], det).Wait(ctx); err != nil {
			return err
		}
		printSystemMessage(opts.Out, "Path set to '%s'.", args[0])
	case "detect":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: detect <detector> [kind]")
		}
		det, err := app.Detector(args[0])
		if err != nil {
			return err
		}
		kind := domain.KindGeneric
		if len(args) == 2 {
			kind = domain.RequestKind(args[1])
		}
		req := domain.NewRequest(kind, det)
		mode, err := mgr.GuessMode(req)
		if err != nil {
			return err
		}
		if err := mgr.ApplyForRequest(req).Wait(ctx); err != nil {
			return err
		}
		printSystemMessage(opts.Out, "Path set to '%s' for %s.", mode, det.Name())
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
	return nil
}

func render(opts ShellOptions, md string) error {
	out, err := opts.Render(md)
	if err != nil {
		return err
	}
	fmt.Fprint(opts.Out, out)
	return nil
}
