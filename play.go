package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/seabattle/game/config"
	"github.com/wricardo/seabattle/game/engine"
	"github.com/wricardo/seabattle/transport/console"
)

const prompt = "> "

// runPlay starts a console game on stdin/stdout
func runPlay(ctx context.Context, cmd *cli.Command) error {
	var opts []engine.Option
	if seed := cmd.Int("seed"); seed != 0 {
		opts = append(opts, engine.WithSeed(uint64(seed)))
	}

	var eng *engine.GameEngine
	if preset := cmd.String("preset"); preset != "" {
		manager, err := config.NewManager(cmd.String("config-dir"))
		if err != nil {
			return err
		}
		cfg, err := manager.LoadConfig(preset)
		if err != nil {
			return err
		}
		if eng, err = engine.NewEngine(cfg, opts...); err != nil {
			return err
		}
		logger.Debug("loaded preset", "preset", preset)
	} else {
		eng = engine.New(opts...)
	}

	return repl(ctx, os.Stdin, os.Stdout, console.NewProcessor(eng))
}

// repl feeds lines to the processor until exit, EOF or cancellation
func repl(ctx context.Context, in io.Reader, out io.Writer, p *console.Processor) error {
	fmt.Fprintln(out, "Sea battle. Type 'help' for commands.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		reply := p.Execute(scanner.Text())
		if reply.Text != "" {
			fmt.Fprintln(out, reply.Text)
		}
		if reply.Quit {
			return nil
		}
	}
}
