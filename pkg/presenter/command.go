package presenter

import (
	"strconv"
	"strings"
)

// CommandKind enumerates the main prompt grammar.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdRefresh
	CmdQuit
	CmdSelect
	CmdMonitor
	CmdStopMonitor
)

// Command is one parsed line from the main prompt. Row is the 1-based table
// index for CmdSelect and CmdMonitor.
type Command struct {
	Kind CommandKind
	Row  int
}

// ParseCommand parses a main prompt line. Input is trimmed and matched
// case-insensitively.
func ParseCommand(line string) Command {
	line = strings.ToLower(strings.TrimSpace(line))
	switch line {
	case "":
		return Command{Kind: CmdRefresh}
	case "s":
		return Command{Kind: CmdQuit}
	case "p":
		return Command{Kind: CmdStopMonitor}
	}
	if row, ok := parseRow(line); ok {
		return Command{Kind: CmdSelect, Row: row}
	}
	if rest, found := strings.CutPrefix(line, "m "); found {
		if row, ok := parseRow(strings.TrimSpace(rest)); ok {
			return Command{Kind: CmdMonitor, Row: row}
		}
	}
	return Command{Kind: CmdUnknown}
}

// parseRow accepts digits only, so signs and spaces are not rows.
func parseRow(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MenuChoice enumerates the action submenu grammar.
type MenuChoice int

const (
	MenuInvalid MenuChoice = iota
	MenuPriority
	MenuAffinity
	MenuThreads
	MenuTerminate
	MenuMonitor
	MenuBack
)

// ParseMenuChoice parses an action submenu line.
func ParseMenuChoice(line string) MenuChoice {
	switch strings.TrimSpace(line) {
	case "1":
		return MenuPriority
	case "2":
		return MenuAffinity
	case "3":
		return MenuThreads
	case "4":
		return MenuTerminate
	case "5":
		return MenuMonitor
	case "0":
		return MenuBack
	}
	return MenuInvalid
}
