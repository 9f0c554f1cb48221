package domain

import "fmt"

// LevelOfAssurance is an ordered strength-of-authentication rating. The
// ordinal positions encode policy meaning (higher = stronger) and must
// never be reordered.
type LevelOfAssurance int

const (
	LevelX LevelOfAssurance = iota
	Level1
	Level2
	Level3
	Level4
)

var assuranceNames = map[LevelOfAssurance]string{
	LevelX: "LEVEL_X",
	Level1: "LEVEL_1",
	Level2: "LEVEL_2",
	Level3: "LEVEL_3",
	Level4: "LEVEL_4",
}

var assuranceValues = map[string]LevelOfAssurance{
	"LEVEL_X": LevelX,
	"LEVEL_1": Level1,
	"LEVEL_2": Level2,
	"LEVEL_3": Level3,
	"LEVEL_4": Level4,
}

func (l LevelOfAssurance) String() string {
	if name, ok := assuranceNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevelOfAssurance parses the wire name of a level (e.g. "LEVEL_2").
func ParseLevelOfAssurance(s string) (LevelOfAssurance, error) {
	if l, ok := assuranceValues[s]; ok {
		return l, nil
	}
	return LevelX, fmt.Errorf("unknown level of assurance %q", s)
}

func (l LevelOfAssurance) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *LevelOfAssurance) UnmarshalText(text []byte) error {
	parsed, err := ParseLevelOfAssurance(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l LevelOfAssurance) GreaterThan(other LevelOfAssurance) bool {
	return l > other
}

func (l LevelOfAssurance) LessThan(other LevelOfAssurance) bool {
	return l < other
}

func (l LevelOfAssurance) EqualOrGreaterThan(other LevelOfAssurance) bool {
	return l >= other
}

// MinAssurance returns the weakest level in the list, or false when the
// list is empty.
func MinAssurance(levels []LevelOfAssurance) (LevelOfAssurance, bool) {
	if len(levels) == 0 {
		return LevelX, false
	}
	min := levels[0]
	for _, l := range levels[1:] {
		if l < min {
			min = l
		}
	}
	return min, true
}

// MaxAssurance returns the strongest level in the list, or false when the
// list is empty.
func MaxAssurance(levels []LevelOfAssurance) (LevelOfAssurance, bool) {
	if len(levels) == 0 {
		return LevelX, false
	}
	max := levels[0]
	for _, l := range levels[1:] {
		if l > max {
			max = l
		}
	}
	return max, true
}

func containsAssurance(levels []LevelOfAssurance, level LevelOfAssurance) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}
