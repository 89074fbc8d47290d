package drawing

import (
	"fmt"
	"strings"
)

// Tool is the active drawing tool.
type Tool int

const (
	ToolNone Tool = iota
	ToolTrendLine
	ToolHorizontal
	ToolRectangle
	ToolNote
)

var toolNames = map[Tool]string{
	ToolNone:       "none",
	ToolTrendLine:  "trendline",
	ToolHorizontal: "horizontal",
	ToolRectangle:  "rectangle",
	ToolNote:       "note",
}

func (t Tool) String() string {
	if s, ok := toolNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tool(%d)", int(t))
}

// ParseTool resolves a tool by name.
func ParseTool(s string) (Tool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range toolNames {
		if name == s {
			return t, nil
		}
	}
	return ToolNone, fmt.Errorf("unknown tool %q", s)
}

// Kind returns the annotation kind the tool produces.
func (t Tool) Kind() (Kind, bool) {
	switch t {
	case ToolTrendLine:
		return KindTrendLine, true
	case ToolHorizontal:
		return KindHorizontal, true
	case ToolRectangle:
		return KindRectangle, true
	case ToolNote:
		return KindNote, true
	}
	return "", false
}

// TwoClick reports whether the tool needs a second click to commit.
func (t Tool) TwoClick() bool {
	k, ok := t.Kind()
	return ok && RequiredPoints(k) == 2
}
