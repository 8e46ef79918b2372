package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vovakirdan/wirespace/internal/core"
)

var errUnknownCommand = errors.New("unknown command")

// deliverer is the engine surface the stdin controller needs.
type deliverer interface {
	Deliver(ctx context.Context, cmd core.Command) error
}

// readCommands turns stdin lines into engine commands until EOF or ctx ends.
func readCommands(ctx context.Context, r io.Reader, engine deliverer) error {
	scanner := bufio.NewScanner(r)
	var held core.Input
	for scanner.Scan() {
		cmd, err := parseLine(scanner.Text(), &held)
		if err != nil {
			fmt.Printf("? %v\n", err)
			continue
		}
		if cmd == nil {
			continue
		}
		if err := engine.Deliver(ctx, *cmd); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// parseLine maps one controller line to a command. Direction words toggle held keys,
// so "up" then "left" walks diagonally until "stop".
func parseLine(line string, held *core.Input) (*core.Command, error) {
	word, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(word) {
	case "":
		return nil, nil
	case "up", "w":
		held.Up, held.Down = true, false
	case "down", "s":
		held.Down, held.Up = true, false
	case "left", "a":
		held.Left, held.Right = true, false
	case "right", "d":
		held.Right, held.Left = true, false
	case "stop", "x":
		*held = core.Input{}
	case "say":
		if rest == "" {
			return nil, errors.New("say needs text")
		}
		return &core.Command{Kind: core.CommandSendChat, Text: rest}, nil
	case "typing":
		return &core.Command{Kind: core.CommandLocalTyping}, nil
	case "react":
		if rest == "" {
			return nil, errors.New("react needs an emoji")
		}
		return &core.Command{Kind: core.CommandSendReaction, Text: rest}, nil
	case "room":
		if rest == "" {
			return nil, errors.New("room needs a name")
		}
		return &core.Command{Kind: core.CommandSwitchRoom, Room: rest}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownCommand, word)
	}
	return &core.Command{Kind: core.CommandInput, Input: *held}, nil
}
