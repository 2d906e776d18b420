package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// step is one parsed call from a .steps script, e.g.
// type_text('#name', 'Taro') parses to {Verb: "type_text", Args: ["#name", "Taro"]}.
// The format mirrors spec.md's own step notation directly: call syntax,
// ';'-or-newline-separated statements, no JSON/YAML needed for a script
// this small.
type step struct {
	Verb string
	Args []string
	Line int
}

var stepPattern = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)\((.*)\)$`)

// parseSteps splits src into individual steps. Statements are separated
// by ';' or newlines; blank lines and lines starting with '//' are
// skipped.
func parseSteps(src string) ([]step, error) {
	var steps []step
	lineNo := 0
	for _, rawLine := range strings.Split(src, "\n") {
		lineNo++
		for _, stmt := range strings.Split(rawLine, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" || strings.HasPrefix(stmt, "//") {
				continue
			}
			s, err := parseStep(stmt, lineNo)
			if err != nil {
				return nil, err
			}
			steps = append(steps, s)
		}
	}
	return steps, nil
}

func parseStep(stmt string, line int) (step, error) {
	m := stepPattern.FindStringSubmatch(stmt)
	if m == nil {
		return step{}, fmt.Errorf("line %d: malformed step %q (want verb(arg, ...))", line, stmt)
	}
	args, err := splitArgs(m[2])
	if err != nil {
		return step{}, fmt.Errorf("line %d: %w", line, err)
	}
	return step{Verb: m[1], Args: args, Line: line}, nil
}

// splitArgs splits a comma-separated argument list, respecting single-
// and double-quoted strings so a quoted value may itself contain commas.
func splitArgs(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var args []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ',':
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quoted argument in %q", s)
	}
	args = append(args, strings.TrimSpace(cur.String()))
	return args, nil
}

func argBool(args []string, i int) (bool, error) {
	if i >= len(args) {
		return false, fmt.Errorf("missing boolean argument at position %d", i)
	}
	return strconv.ParseBool(args[i])
}

func argInt(args []string, i int) (int64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing integer argument at position %d", i)
	}
	return strconv.ParseInt(args[i], 10, 64)
}

func argStr(args []string, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing string argument at position %d", i)
	}
	return args[i], nil
}
