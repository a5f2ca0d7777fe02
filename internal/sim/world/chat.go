package world

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"skyvox.io/internal/protocol"
	"skyvox.io/internal/sim/comp"
	"skyvox.io/internal/sim/ecs"
)

// ChatCommand is a slash command available to registered clients.
type ChatCommand struct {
	Keyword     string
	ArgsPattern string
	Help        string
	Handler     func(w *World, e ecs.Entity, args []string) string
}

var chatCommands []ChatCommand

func init() {
	chatCommands = []ChatCommand{
		{"help", "", "Display this message", cmdHelp},
		{"jump", "dx dy dz", "Offset your current position", cmdJump},
		{"goto", "x y z", "Teleport to a position", cmdGoto},
		{"alias", "name", "Change your alias", cmdAlias},
		{"tp", "alias", "Teleport to another player", cmdTp},
		{"kill", "", "Kill yourself", cmdKill},
	}
}

func (w *World) handleChat(line chatLine) Event {
	if line.system {
		w.clients.NotifyRegistered(protocol.Chat(line.text))
		return Event{Kind: EventChat, Text: line.text}
	}
	ev := Event{Kind: EventChat, Uid: uint64(w.uidOf(line.from)), Text: line.text}
	if !w.ecs.Reg.Alive(line.from) {
		return ev
	}
	if len(line.text) > 1 && strings.HasPrefix(line.text, "/") {
		kw, args, _ := strings.Cut(line.text[1:], " ")
		w.runCommand(line.from, kw, strings.Fields(args))
		return ev
	}
	alias := "<anon>"
	if p, ok := w.ecs.Player.Get(line.from); ok {
		alias = p.Alias
		ev.Alias = alias
	}
	w.clients.NotifyRegistered(protocol.Chat(fmt.Sprintf("[%s] %s", alias, line.text)))
	return ev
}

func (w *World) runCommand(e ecs.Entity, kw string, args []string) {
	for _, c := range chatCommands {
		if c.Keyword != kw {
			continue
		}
		if reply := c.Handler(w, e, args); reply != "" {
			w.clients.Notify(e, protocol.Chat(reply))
		}
		return
	}
	w.clients.Notify(e, protocol.Chat(fmt.Sprintf("Unrecognised command: '/%s'\ntype '/help' for a list of available commands", kw)))
}

func usage(c string) string {
	for _, cmd := range chatCommands {
		if cmd.Keyword == c {
			return fmt.Sprintf("Usage: /%s %s", cmd.Keyword, cmd.ArgsPattern)
		}
	}
	return ""
}

func parseVec3(args []string) (mgl64.Vec3, bool) {
	var v mgl64.Vec3
	if len(args) != 3 {
		return v, false
	}
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return v, false
		}
		v[i] = f
	}
	return v, true
}

func cmdHelp(w *World, _ ecs.Entity, _ []string) string {
	var sb strings.Builder
	for i, c := range chatCommands {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "/%s %s: %s", c.Keyword, c.ArgsPattern, c.Help)
	}
	return sb.String()
}

func cmdJump(w *World, e ecs.Entity, args []string) string {
	d, ok := parseVec3(args)
	if !ok {
		return usage("jump")
	}
	pos, ok := w.ecs.Pos.Get(e)
	if !ok {
		return "You have no position"
	}
	pos.V = pos.V.Add(d)
	w.ecs.ForceUpdate.Insert(e, comp.ForceUpdate{})
	return ""
}

func cmdGoto(w *World, e ecs.Entity, args []string) string {
	p, ok := parseVec3(args)
	if !ok {
		return usage("goto")
	}
	pos, ok := w.ecs.Pos.Get(e)
	if !ok {
		return "You have no position"
	}
	pos.V = p
	w.ecs.ForceUpdate.Insert(e, comp.ForceUpdate{})
	return ""
}

func cmdAlias(w *World, e ecs.Entity, args []string) string {
	if len(args) != 1 {
		return usage("alias")
	}
	p, ok := w.ecs.Player.Get(e)
	if !ok {
		return "You are not registered"
	}
	p.Alias = args[0]
	return ""
}

func cmdTp(w *World, e ecs.Entity, args []string) string {
	if len(args) != 1 {
		return usage("tp")
	}
	pos, ok := w.ecs.Pos.Get(e)
	if !ok {
		return "You have no position"
	}
	var (
		target mgl64.Vec3
		found  bool
	)
	w.ecs.Player.Each(func(o ecs.Entity, p *comp.Player) {
		if found || p.Alias != args[0] {
			return
		}
		if tp, ok := w.ecs.Pos.Get(o); ok {
			target, found = tp.V, true
		}
	})
	if !found {
		return fmt.Sprintf("Player '%s' not found!", args[0])
	}
	pos.V = target
	w.ecs.ForceUpdate.Insert(e, comp.ForceUpdate{})
	return ""
}

func cmdKill(w *World, e ecs.Entity, _ []string) string {
	st, ok := w.ecs.Stats.Get(e)
	if !ok {
		return "You have no health"
	}
	st.HP.SetTo(0, comp.HealthSource{Kind: comp.SourceSuicide})
	return ""
}
