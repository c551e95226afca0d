package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

var errUnknownCommand = errors.New("unknown command")

// player is the playback surface driven from the terminal
type player interface {
	Play() error
	Pause() error
	Seek(index int) error
	Skip(delta int) error
	SetSpeed(speed float64) error
}

// readCommands executes playback commands read line by line from r:
//
//	play | pause | seek <frame> | skip <±frames> | speed <x>
func readCommands(ctx context.Context, r io.Reader, p player, logger *slog.Logger) {
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		if err := execute(p, line); err != nil {
			logger.Warn(err.Error(), slog.String("command", line))
		}
	}
}

func execute(p player, line string) error {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil
	}

	name, args := fields[0], fields[1:]
	switch name {
	case "play", "pause":
		if len(args) != 0 {
			return fmt.Errorf("%s takes no arguments", name)
		}
		if name == "play" {
			return p.Play()
		}
		return p.Pause()

	case "seek", "skip":
		if len(args) != 1 {
			return fmt.Errorf("%s takes a frame count", name)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid frame count '%s': %w", args[0], err)
		}
		if name == "seek" {
			// frames are numbered from 1 on screen
			return p.Seek(n - 1)
		}
		return p.Skip(n)

	case "speed":
		if len(args) != 1 {
			return errors.New("speed takes a multiplier")
		}
		speed, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "x"), 64)
		if err != nil {
			return fmt.Errorf("invalid speed '%s': %w", args[0], err)
		}
		return p.SetSpeed(speed)

	default:
		return fmt.Errorf("%w '%s'", errUnknownCommand, name)
	}
}
