// Package console is the operator command line of the skill server.
// Each line is one command; players are addressed by name.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/udisondev/rcskills/internal/game/action"
	"github.com/udisondev/rcskills/internal/game/progression"
	"github.com/udisondev/rcskills/internal/model"
)

var playerNamespace = uuid.MustParse("6f1d8a52-3c0e-4b8e-9d6a-6f1f3c7e2a41")

// PlayerID maps a player name to its stable ID.
func PlayerID(name string) uuid.UUID {
	return uuid.NewSHA1(playerNamespace, []byte(strings.ToLower(name)))
}

// Catalog resolves skill templates.
type Catalog interface {
	Get(alias string) (*model.SkillTemplate, bool)
	Visible() []*model.SkillTemplate
}

// TemplateStore persists the enabled flag of a template.
type TemplateStore interface {
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
}

// Bank credits and reads wallets.
type Bank interface {
	Deposit(ctx context.Context, account uuid.UUID, amount float64, memo map[string]string) error
	Balance(ctx context.Context, account uuid.UUID) (float64, error)
	Format(amount float64) string
}

// History reads recent exp changes.
type History interface {
	Recent(ctx context.Context, playerID uuid.UUID, limit int) ([]progression.ExpRecord, error)
}

// ErrUsage is returned for malformed commands.
var ErrUsage = errors.New("usage")

type command struct {
	usage string
	args  int
	run   func(ctx context.Context, args []string) error
}

// Console dispatches operator commands to the engine and actions.
type Console struct {
	engine    *progression.Engine
	exec      *action.Executor
	catalog   Catalog
	templates TemplateStore
	bank      Bank
	history   History
	out       io.Writer

	commands map[string]command
}

// New creates a console. templates, bank and history may be nil; the
// commands that need them then report they are unavailable.
func New(engine *progression.Engine, exec *action.Executor, catalog Catalog,
	templates TemplateStore, bank Bank, history History, out io.Writer,
) *Console {
	c := &Console{
		engine:    engine,
		exec:      exec,
		catalog:   catalog,
		templates: templates,
		bank:      bank,
		history:   history,
		out:       out,
	}
	c.commands = map[string]command{
		"info":    {"info <player>", 1, c.info},
		"skills":  {"skills", 0, c.skills},
		"exp":     {"exp <player> <amount> [reason]", 2, c.addExp},
		"setexp":  {"setexp <player> <exp>", 2, c.setExp},
		"level":   {"level <player> <level>", 2, c.setLevel},
		"points":  {"points <player> <amount>", 2, c.addPoints},
		"slots":   {"slots <player> <count>", 2, c.setSlots},
		"add":     {"add <player> <skill> [bypass]", 2, c.addSkill},
		"buy":     {"buy <player> <skill> [bypass]", 2, c.buySkill},
		"reset":   {"reset <player> [bypass]", 1, c.resetSlots},
		"remove":  {"remove <player> <skill>", 2, c.removeSkill},
		"enable":  {"enable <skill>", 1, c.enable},
		"disable": {"disable <skill>", 1, c.disable},
		"deposit": {"deposit <player> <amount>", 2, c.deposit},
		"history": {"history <player> [limit]", 1, c.showHistory},
		"delete":  {"delete <player>", 1, c.deletePlayer},
	}
	return c
}

// Run executes commands read from in until EOF or ctx is done.
// Command errors are printed and do not stop the loop.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := c.Exec(ctx, line); err != nil {
				c.printf("error: %v\n", err)
			}
		}
	}
}

// Exec runs a single command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	if name == "help" {
		c.help()
		return nil
	}
	cmd, ok := c.commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	if len(args) < cmd.args {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}
	slog.Debug("console command", "command", name, "args", args)
	return cmd.run(ctx, args)
}

func (c *Console) help() {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c.printf("  %s\n", c.commands[name].usage)
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) player(ctx context.Context, name string) (*model.Player, error) {
	return c.engine.GetOrCreate(ctx, PlayerID(name), name)
}

func (c *Console) template(alias string) (*model.SkillTemplate, error) {
	t, ok := c.catalog.Get(alias)
	if !ok {
		return nil, fmt.Errorf("unknown skill %q", alias)
	}
	return t, nil
}

func bypassFlag(args []string, at int) bool {
	return len(args) > at && strings.EqualFold(args[at], "bypass")
}

func (c *Console) info(ctx context.Context, args []string) error {
	p, err := c.player(ctx, args[0])
	if err != nil {
		return err
	}
	c.printf("%s: level %d, exp %d, skill points %d\n",
		p.Name(), p.CurrentLevel(), p.TotalExp(), p.SkillPoints())
	c.printf("slots: %d total, %d free, %d in use; resets %d, free resets %d\n",
		p.TotalSlots(), p.FreeSkillSlots(), p.ActiveSlotCount(), p.ResetCount(), p.FreeResets())
	for _, s := range p.Skills() {
		c.printf("  %-20s %s\n", s.Alias(), s.Status)
	}
	return nil
}

func (c *Console) skills(_ context.Context, _ []string) error {
	for _, t := range c.catalog.Visible() {
		c.printf("  %-20s level %d, %v money, %d points, %d slot(s)\n",
			t.Alias, t.Level, t.Money, t.SkillPoints, t.SkillSlots)
	}
	return nil
}

func (c *Console) addExp(ctx context.Context, args []string) error {
	p, err := c.player(ctx, args[0])
	if err != nil {
		return err
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("parsing exp: %w", err)
	}
	reason := "console"
	if len(args) > 2 {
		reason = strings.Join(args[2:], " ")
	}
	if _, err := c.engine.AddExp(ctx, p, amount, reason); err != nil {
		return err
	}
	c.printf("%s: level %d, exp %d\n", p.Name(), p.CurrentLevel(), p.TotalExp())
	return nil
}

func (c *Console) setExp(ctx context.Context, args []string) error {
	p, err := c.player(ctx, args[0])
	if err != nil {
		return err
	}
	exp, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("parsing exp: %w", err)
	}
	if _, err := c.engine.SetExp(ctx, p, exp, "console"); err != nil {
		return err
	}
	c.printf("%s: level %d, exp %d\n", p.Name(), p.CurrentLevel(), p.TotalExp())
	return nil
}

func (c *Console) setLevel(ctx context.Context, args []string) error {
	p, err := c.player(ctx, args[0])
	if err != nil {
		return err
	}
	level, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("parsing level: %w", err)
	}
	if _, err := c.engine.SetLevel(ctx, p, level); err != nil {
		return err
	}
	c.printf("%s: level %d, exp %d\n", p.Name(), p.CurrentLevel(), p.TotalExp())
	return nil
}

func (c *Console) addPoints(ctx context.Context, args []string) error {
	p, err := c.player(ctx, args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("parsing skill points: %w", err)
	}
	if _, err := c.engine.AddSkillPoints(ctx, p, n); err != nil {
		return err
	}
	c.printf("%s: %d skill points\n", p.Name(), p.SkillPoints())
	return nil
}

func (c *Console) setSlots(ctx context.Context, args []string) error {
	p, err := c.player(ctx, args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("parsing slot count: %w", err)
	}
	if _, err := c.engine.SetSkillSlots(ctx, p, n, model.SlotFree); err != nil {
		return err
	}
	c.printf("%s: %d slots, %d free\n", p.Name(), p.TotalSlots(), p.FreeSkillSlots())
	return nil
}

func (c *Console) report(res action.Result) {
	if res.Success() {
		c.printf("ok\n")
		return
	}
	c.printf("failed: %s\n", res.Reason)
}

func (c *Console) addSkill(ctx context.Context, args []string) error {
	p, err := c.player(ctx, args[0])
	if err != nil {
		return err
	}
	t, err := c.template(args[1])
	if err != nil {
		return err
	}
	res, err := c.exec.AddSkill(p, t).Execute(ctx, bypassFlag(args, 2))
	if err != nil {
		return err
	}
	c.report(res)
	return nil
}

func (c *Console) buySkill(ctx context.Context, args []string) error {
	p, err := c.player(ctx, args[0])
	if err != nil {
		return err
	}
	t, err := c.template(args[1])
	if err != nil {
		return err
	}
	res, err := c.exec.BuySkill(p, t).Execute(ctx, bypassFlag(args, 2))
	if err != nil {
		return err
	}
	c.report(res)
	return nil
}

func (c *Console) resetSlots(ctx context.Context, args []string) error {
	p, err := c.player(ctx, args[0])
	if err != nil {
		return err
	}
	res, err := c.exec.ResetSlots(p).Execute(ctx, bypassFlag(args, 1))
	if err != nil {
		return err
	}
	c.report(res)
	return nil
}

func (c *Console) removeSkill(ctx context.Context, args []string) error {
	p, err := c.player(ctx, args[0])
	if err != nil {
		return err
	}
	t, err := c.template(args[1])
	if err != nil {
		return err
	}
	removed, err := c.engine.RemoveSkill(ctx, p, t)
	if err != nil {
		return err
	}
	if !removed {
		c.printf("%s does not have %s\n", p.Name(), t.Alias)
		return nil
	}
	c.printf("ok\n")
	return nil
}

func (c *Console) enable(ctx context.Context, args []string) error {
	return c.setEnabled(ctx, args[0], true)
}

func (c *Console) disable(ctx context.Context, args []string) error {
	return c.setEnabled(ctx, args[0], false)
}

func (c *Console) setEnabled(ctx context.Context, alias string, enabled bool) error {
	t, err := c.template(alias)
	if err != nil {
		return err
	}
	if c.templates != nil {
		if err := c.templates.SetEnabled(ctx, t.ID, enabled); err != nil {
			return err
		}
	}
	if err := c.engine.SetTemplateEnabled(ctx, t, enabled); err != nil {
		return err
	}
	c.printf("%s enabled: %t\n", t.Alias, enabled)
	return nil
}

func (c *Console) deposit(ctx context.Context, args []string) error {
	if c.bank == nil {
		return errors.New("no wallet backend configured")
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("parsing amount: %w", err)
	}
	id := PlayerID(args[0])
	if err := c.bank.Deposit(ctx, id, amount, map[string]string{"reason": "console"}); err != nil {
		return err
	}
	balance, err := c.bank.Balance(ctx, id)
	if err != nil {
		return err
	}
	c.printf("%s: balance %s\n", args[0], c.bank.Format(balance))
	return nil
}

func (c *Console) showHistory(ctx context.Context, args []string) error {
	if c.history == nil {
		return errors.New("no history backend configured")
	}
	limit := 10
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("parsing limit: %w", err)
		}
		limit = n
	}
	recs, err := c.history.Recent(ctx, PlayerID(args[0]), limit)
	if err != nil {
		return err
	}
	for _, r := range recs {
		c.printf("  %s  %d -> %d exp, level %d -> %d (%s)\n",
			r.At.Format("2006-01-02 15:04:05"), r.OldExp, r.NewExp, r.OldLevel, r.NewLevel, r.Reason)
	}
	return nil
}

func (c *Console) deletePlayer(ctx context.Context, args []string) error {
	p, err := c.player(ctx, args[0])
	if err != nil {
		return err
	}
	if err := c.engine.DeletePlayer(ctx, p); err != nil {
		return err
	}
	c.printf("deleted %s\n", p.Name())
	return nil
}
