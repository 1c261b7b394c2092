package game

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event during a headless session.
type SimLogEntry struct {
	Tick     Tick
	Player   string  // player name, or "--" for session-wide events
	Category string  // lifecycle, position, attach, spawn, safety
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=00042] Taz          attach     link             Taz -> Carrier
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%05d] %-12s %-10s %-16s %s",
		e.Tick, e.Player, e.Category, e.Key, e.Value)
}

// SimLog collects structured events during a headless session. Unlike the
// zap log it is unbounded, machine-readable and queried by tests and the
// report command.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, entries passed to
// AddVerbose are kept as well; the event listener adds no per-tick entries.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry.
func (sl *SimLog) Add(tick Tick, player, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Player:   player,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick Tick, player, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, player, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterPlayer returns entries for a specific player name.
func (sl *SimLog) FilterPlayer(name string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Player == name {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (sl *SimLog) FilterTickRange(fromTick, toTick Tick) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if TickGTE(e.Tick, fromTick) && TickGTE(toTick, e.Tick) {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and
// value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// EventListener returns a bus listener that records every lifecycle event.
func (sl *SimLog) EventListener(clock Clock) Listener {
	name := func(p *Player) string {
		if p == nil {
			return "--"
		}
		return p.Name
	}

	return func(ev Event) {
		tick := clock.Now()
		switch e := ev.(type) {
		case JoinGameEvent:
			sl.Add(tick, "--", "lifecycle", "join_game", "initial roster complete", 0)
		case PlayerEnterEvent:
			sl.Add(tick, name(e.Player), "lifecycle", "enter",
				fmt.Sprintf("id=%d freq=%d ship=%d", e.Player.ID, e.Player.Frequency, e.Player.Ship), 0)
		case PlayerLeaveEvent:
			sl.Add(tick, name(e.Player), "lifecycle", "leave", "", 0)
		case PlayerDeathEvent:
			sl.Add(tick, name(e.Killed), "lifecycle", "death",
				fmt.Sprintf("killed by %s bounty=%d flags=%d", name(e.Killer), e.Bounty, e.FlagTransfer),
				float64(e.Bounty))
		case PlayerFreqAndShipChangeEvent:
			sl.Add(tick, name(e.Player), "lifecycle", "freq_ship_change",
				fmt.Sprintf("freq %d -> %d ship %d -> %d", e.OldFreq, e.NewFreq, e.OldShip, e.NewShip), 0)
		case PlayerAttachEvent:
			sl.Add(tick, name(e.Child), "attach", "link",
				fmt.Sprintf("%s -> %s", name(e.Child), name(e.Parent)), 0)
		case PlayerDetachEvent:
			sl.Add(tick, name(e.Child), "attach", "unlink",
				fmt.Sprintf("%s -/- %s", name(e.Child), name(e.Parent)), 0)
		case SpawnEvent:
			sl.Add(tick, name(e.Self), "spawn", "placed",
				fmt.Sprintf("(%.1f,%.1f)", e.Self.Position.X, e.Self.Position.Y), 0)
		case TeleportEvent:
			sl.Add(tick, name(e.Player), "position", "teleport",
				fmt.Sprintf("(%.1f,%.1f)", e.Player.Position.X, e.Player.Position.Y), 0)
		case SafeEnterEvent:
			sl.Add(tick, "--", "safety", "enter", fmt.Sprintf("(%.1f,%.1f)", e.Position.X, e.Position.Y), 0)
		case SafeLeaveEvent:
			sl.Add(tick, "--", "safety", "leave", fmt.Sprintf("(%.1f,%.1f)", e.Position.X, e.Position.Y), 0)
		}
	}
}

// Summary returns a short human-readable summary of the roster state.
func (sl *SimLog) Summary(tick Tick, pm *PlayerManager) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%05d ---\n", tick)

	alive := 0
	spectating := 0
	attached := 0
	for i := 0; i < pm.PlayerCount(); i++ {
		p := pm.PlayerAt(i)
		switch {
		case p.Ship >= SpectatorShip:
			spectating++
		case p.EnterDelay > 0:
		default:
			alive++
		}
		if p.AttachParent != InvalidPlayerID {
			attached++
		}
	}
	fmt.Fprintf(&sb, "Roster: %d  alive=%d  spectating=%d  attached=%d\n",
		pm.PlayerCount(), alive, spectating, attached)

	fmt.Fprintf(&sb, "Events: enters=%d leaves=%d deaths=%d spawns=%d teleports=%d\n",
		sl.CountCategory("lifecycle", "enter"),
		sl.CountCategory("lifecycle", "leave"),
		sl.CountCategory("lifecycle", "death"),
		sl.CountCategory("spawn", "placed"),
		sl.CountCategory("position", "teleport"))

	return sb.String()
}
