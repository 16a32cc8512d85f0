package model

import (
	"strconv"
)

// GameModeNoCalls disables the automatic first call on START_GAME
const GameModeNoCalls = "no-calls"

// Settings is the free-form game settings bag shared by caller and players
type Settings map[string]any

// Merge returns a shallow copy of s with patch applied on top
func (s Settings) Merge(patch Settings) Settings {
	out := make(Settings, len(s)+len(patch))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy, never nil
func (s Settings) Clone() Settings {
	return Settings{}.Merge(s)
}

// AutoWin reports whether marked cards are verified automatically
func (s Settings) AutoWin() bool {
	switch v := s["autoWin"].(type) {
	case float64:
		return v == 1
	case int:
		return v == 1
	case bool:
		return v
	}
	return false
}

// SelectedPattern returns the configured winning pattern descriptor
func (s Settings) SelectedPattern() string {
	switch v := s["selectedPattern"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

func (s Settings) GameMode() string {
	v, _ := s["gameMode"].(string)
	return v
}
