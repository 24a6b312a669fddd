package history

import (
	"fmt"
	"strconv"
	"strings"
)

// missingVersionSentinel is one below NoVersion so it never collides with
// a version a write event could install (versions are parsed as ordinary
// small uint64s in practice).
const missingVersionSentinel = NoVersion - 1

// DecodeText parses the compact text form of spec.md §6.3: one session per
// line (committed transactions are bracketed groups of events separated by
// whitespace), `---` on its own line separates sessions, and the mapping
// from variable names to Variable is lexicographic first-seen. This is a
// fixture/test helper, not a frontend parser — see history/json.go's note
// on scope.
func DecodeText(text string) (History, error) {
	varIds := make(map[string]Variable)
	nextVar := Variable(0)
	varOf := func(name string) Variable {
		if id, ok := varIds[name]; ok {
			return id
		}
		id := nextVar
		varIds[name] = id
		nextVar++
		return id
	}

	var h History
	var current Session

	flushSession := func() {
		h.Sessions = append(h.Sessions, current)
		current = Session{}
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "---" {
			flushSession()
			continue
		}

		for _, group := range splitBracketGroups(line) {
			tx := Transaction{Committed: true}
			for _, tok := range strings.Fields(group) {
				ev, err := parseEvent(tok, varOf)
				if err != nil {
					return History{}, err
				}
				tx.Events = append(tx.Events, ev)
			}
			current.Transactions = append(current.Transactions, tx)
		}
	}
	flushSession()

	return h, nil
}

// splitBracketGroups splits "[a b] [c d]" into ["a b", "c d"].
func splitBracketGroups(line string) []string {
	var groups []string
	var depth int
	var buf strings.Builder
	for _, r := range line {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				groups = append(groups, buf.String())
				buf.Reset()
			}
		default:
			if depth > 0 {
				buf.WriteRune(r)
			}
		}
	}
	return groups
}

func parseEvent(tok string, varOf func(string) Variable) (Event, error) {
	switch {
	case strings.Contains(tok, ":="):
		parts := strings.SplitN(tok, ":=", 2)
		v, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return Event{}, fmt.Errorf("bad write version in %q: %w", tok, err)
		}
		return Write(varOf(parts[0]), Version(v)), nil
	case strings.Contains(tok, "=="):
		parts := strings.SplitN(tok, "==", 2)
		if parts[1] == "?" {
			// Deliberately a version nobody will ever install, to exercise
			// the UnknownVersion error path (spec.md §6.3: "used to test
			// error paths").
			return Read(varOf(parts[0]), missingVersionSentinel), nil
		}
		v, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			if parts[1] == "initial" {
				return Read(varOf(parts[0]), NoVersion), nil
			}
			return Event{}, fmt.Errorf("bad read version in %q: %w", tok, err)
		}
		return Read(varOf(parts[0]), Version(v)), nil
	default:
		return Event{}, fmt.Errorf("unrecognized event token %q", tok)
	}
}
