package game

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/annel0/unlimited-mining/internal/chat"
	"github.com/annel0/unlimited-mining/internal/world"
)

// Имена команд чата
const (
	CmdInventory  = "inventory"
	CmdInv        = "inv"
	CmdStats      = "stats"
	CmdHelp       = "mininghelp"
	CmdCreateMine = "createmine"
	CmdClearMine  = "clearmine"
	CmdMine       = "mine"
)

// CommandResult - строки, отправленные игроку в ответ на команду
type CommandResult struct {
	Command string   `json:"command"`
	Lines   []string `json:"lines"`
}

type command struct {
	admin bool
	run   func(ctx context.Context, playerID string) ([]string, error)
}

func (g *Game) registerCommands() {
	inventory := command{run: g.cmdInventory}
	g.commands = map[string]command{
		CmdInventory:  inventory,
		CmdInv:        inventory,
		CmdStats:      {run: g.cmdStats},
		CmdHelp:       {run: func(context.Context, string) ([]string, error) { return chat.Help(), nil }},
		CmdMine:       {run: g.cmdMineStatus},
		CmdCreateMine: {admin: true, run: g.cmdCreateMine},
		CmdClearMine:  {admin: true, run: g.cmdClearMine},
	}
}

// Commands возвращает отсортированный список команд
func (g *Game) Commands() []string {
	names := make([]string, 0, len(g.commands))
	for name := range g.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HandleCommand выполняет команду чата и шепчет результат игроку.
// Имя регистронезависимо, ведущий "/" допускается.
func (g *Game) HandleCommand(ctx context.Context, playerID, name string) (CommandResult, error) {
	name = normalizeCommand(name)
	cmd, ok := g.commands[name]
	if !ok {
		return CommandResult{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	if cmd.admin && !g.IsAdmin(playerID) {
		return CommandResult{}, fmt.Errorf("%w: %s", ErrForbidden, name)
	}

	lines, err := cmd.run(ctx, playerID)
	if err != nil {
		return CommandResult{}, err
	}
	if len(lines) > 0 {
		g.deps.Presenter.Whisper(playerID, lines...)
	}
	return CommandResult{Command: name, Lines: lines}, nil
}

func (g *Game) cmdInventory(ctx context.Context, playerID string) ([]string, error) {
	p, err := g.session.Player(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return chat.Inventory(p.Name(), p.Inventory().Entries()), nil
}

func (g *Game) cmdStats(ctx context.Context, playerID string) ([]string, error) {
	stats, err := g.PlayerStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return chat.Stats(stats), nil
}

func (g *Game) cmdMineStatus(context.Context, string) ([]string, error) {
	s := g.mine.Status()
	return []string{chat.MineStatus(s.Created, s.Voxels)}, nil
}

func (g *Game) cmdCreateMine(ctx context.Context, _ string) ([]string, error) {
	g.deps.Presenter.Broadcast("Initializing mining area...")
	if err := g.mine.Create(ctx); err != nil {
		if errors.Is(err, world.ErrAlreadyCreated) {
			return []string{chat.Notice("The mine already exists.")}, nil
		}
		return nil, err
	}
	s := g.mine.Status()
	return []string{chat.MineStatus(s.Created, s.Voxels)}, nil
}

func (g *Game) cmdClearMine(ctx context.Context, _ string) ([]string, error) {
	if err := g.mine.Clear(ctx); err != nil {
		if errors.Is(err, world.ErrNotCreated) {
			return []string{chat.MineStatus(false, 0)}, nil
		}
		return nil, err
	}
	g.deps.Presenter.Broadcast("Mining area cleared.")
	return []string{chat.Notice("The mine was cleared.")}, nil
}
