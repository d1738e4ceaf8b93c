package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Stage tells which decode attempt produced a JSON value.
type Stage int

const (
	StageNone Stage = iota
	// StageWhole means the whole reply was valid JSON.
	StageWhole
	// StageFragment means JSON was found embedded between the first '{' and the last '}'.
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageWhole:
		return "whole"
	case StageFragment:
		return "fragment"
	}
	return "none"
}

// ErrNoJSON is returned when neither decode stage yields valid JSON.
var ErrNoJSON = errors.New("no JSON value in reply")

var fragmentPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON finds the JSON value in a model reply. It first decodes the whole
// reply; if that fails it decodes the greedy {...} fragment.
func ExtractJSON(reply string) (json.RawMessage, Stage, error) {
	trimmed := strings.TrimSpace(reply)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), StageWhole, nil
	}

	fragment := fragmentPattern.FindString(reply)
	if fragment != "" && json.Valid([]byte(fragment)) {
		return json.RawMessage(fragment), StageFragment, nil
	}
	return nil, StageNone, ErrNoJSON
}
