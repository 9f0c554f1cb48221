package domain

import "testing"

func TestParseLevelOfAssurance(t *testing.T) {
	tests := []struct {
		name     string
		expected LevelOfAssurance
	}{
		{"LEVEL_X", LevelX},
		{"LEVEL_1", Level1},
		{"LEVEL_2", Level2},
		{"LEVEL_3", Level3},
		{"LEVEL_4", Level4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := ParseLevelOfAssurance(tt.name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if level != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, level)
			}
			if level.String() != tt.name {
				t.Errorf("Expected round trip to '%s', got '%s'", tt.name, level.String())
			}
		})
	}
}

func TestParseLevelOfAssuranceUnknown(t *testing.T) {
	if _, err := ParseLevelOfAssurance("LEVEL_5"); err == nil {
		t.Error("Expected error for unknown level")
	}
	if _, err := ParseLevelOfAssurance(""); err == nil {
		t.Error("Expected error for empty level")
	}
}

func TestLevelOfAssuranceOrdering(t *testing.T) {
	if !Level2.GreaterThan(Level1) {
		t.Error("Expected LEVEL_2 > LEVEL_1")
	}
	if !Level1.LessThan(Level2) {
		t.Error("Expected LEVEL_1 < LEVEL_2")
	}
	if !Level2.EqualOrGreaterThan(Level2) {
		t.Error("Expected LEVEL_2 >= LEVEL_2")
	}
	if Level1.EqualOrGreaterThan(Level2) {
		t.Error("Expected LEVEL_1 < LEVEL_2")
	}
	if !LevelX.LessThan(Level1) {
		t.Error("Expected LEVEL_X below every numbered level")
	}
}

func TestMinMaxAssurance(t *testing.T) {
	levels := []LevelOfAssurance{Level2, Level1, Level3}

	min, ok := MinAssurance(levels)
	if !ok || min != Level1 {
		t.Errorf("Expected min LEVEL_1, got %v (ok=%v)", min, ok)
	}

	max, ok := MaxAssurance(levels)
	if !ok || max != Level3 {
		t.Errorf("Expected max LEVEL_3, got %v (ok=%v)", max, ok)
	}

	if _, ok := MinAssurance(nil); ok {
		t.Error("Expected no min for empty list")
	}
	if _, ok := MaxAssurance(nil); ok {
		t.Error("Expected no max for empty list")
	}
}

func TestLevelOfAssuranceMarshalText(t *testing.T) {
	text, err := Level2.MarshalText()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(text) != "LEVEL_2" {
		t.Errorf("Expected 'LEVEL_2', got '%s'", text)
	}

	var level LevelOfAssurance
	if err := level.UnmarshalText([]byte("LEVEL_3")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level != Level3 {
		t.Errorf("Expected LEVEL_3, got %v", level)
	}

	if err := level.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("Expected error for unknown level name")
	}
}
