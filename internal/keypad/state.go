// Package keypad holds the digit-entry lock used by keypad entities.
package keypad

import "strings"

// MaxDigits caps the entered sequence regardless of the code length.
const MaxDigits = 8

// Mask pads the display up to the code length when ShowDigitCount is set.
const Mask = '_'

// State is a locked-until-correct digit keypad. Once unlocked it ignores all
// further input.
type State struct {
	correct  []int
	entered  []int
	unlocked bool
	action   func()

	// ShowDigitCount reveals the code length: entry stops at that length and
	// the display is padded with Mask.
	ShowDigitCount bool
}

func New(correct []int, action func(), showDigitCount bool) *State {
	return &State{
		correct:        append([]int(nil), correct...),
		entered:        make([]int, 0, MaxDigits),
		action:         action,
		ShowDigitCount: showDigitCount,
	}
}

func (s *State) Unlocked() bool { return s.unlocked }

// Entered returns a copy of the digits typed so far.
func (s *State) Entered() []int { return append([]int(nil), s.entered...) }

// CodeLength returns the number of digits in the code.
func (s *State) CodeLength() int { return len(s.correct) }

// AddDigit appends d. It is a no-op for values outside 0-9, when unlocked, at
// MaxDigits, or at the code length while ShowDigitCount is set. It reports
// whether d was accepted.
func (s *State) AddDigit(d int) bool {
	if d < 0 || d > 9 || s.unlocked || len(s.entered) >= MaxDigits {
		return false
	}
	if s.ShowDigitCount && len(s.entered) >= len(s.correct) {
		return false
	}
	s.entered = append(s.entered, d)
	return true
}

// Backspace drops the last digit. No-op when empty or unlocked.
func (s *State) Backspace() bool {
	if s.unlocked || len(s.entered) == 0 {
		return false
	}
	s.entered = s.entered[:len(s.entered)-1]
	return true
}

// CheckUnlock compares the entry with the code. A match unlocks the keypad and
// runs the bound action; this happens at most once per State.
func (s *State) CheckUnlock() bool {
	if s.unlocked {
		return true
	}
	if len(s.entered) != len(s.correct) {
		return false
	}
	for i, d := range s.correct {
		if s.entered[i] != d {
			return false
		}
	}
	s.unlocked = true
	if s.action != nil {
		s.action()
	}
	return true
}

// Display renders the entry for the keypad dialog.
func (s *State) Display() string {
	var b strings.Builder
	for _, d := range s.entered {
		b.WriteByte(byte('0' + d))
	}
	if s.ShowDigitCount {
		for i := len(s.entered); i < len(s.correct); i++ {
			b.WriteRune(Mask)
		}
	}
	return b.String()
}
