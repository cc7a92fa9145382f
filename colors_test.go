package main

import "testing"

func TestResolveColorsPreferencesFirst(t *testing.T) {
	got := resolveColors([]string{colorRandom, "#3498db", "#3498db"})

	if got[1] != "#3498db" {
		t.Errorf("first valid preference should win, got %s", got[1])
	}
	// slot 0 default is taken by slot 1's preference, so it cycles to the next default
	if got[0] != "#e74c3c" {
		t.Errorf("expected slot 0 to fall back to #e74c3c, got %s", got[0])
	}
	// duplicate preference loses; slot 2 default is free
	if got[2] != "#2ecc71" {
		t.Errorf("expected slot 2 to fall back to #2ecc71, got %s", got[2])
	}
}

func TestResolveColorsUnique(t *testing.T) {
	got := resolveColors([]string{"#ff79c6", colorRandom, "bogus", "#ff79c6"})
	seen := map[string]bool{}
	for i, c := range got {
		if c == "" {
			t.Fatalf("slot %d has no color", i)
		}
		if seen[c] {
			t.Errorf("color %s assigned twice: %v", c, got)
		}
		seen[c] = true
	}
	if got[0] != "#ff79c6" {
		t.Errorf("expected pink for slot 0, got %s", got[0])
	}
}

func TestResolveColorsDeterministic(t *testing.T) {
	prefs := []string{colorRandom, "#e67e22", colorRandom}
	a := resolveColors(prefs)
	b := resolveColors(prefs)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("resolveColors not deterministic: %v vs %v", a, b)
		}
	}
}

func TestColorChoiceValidation(t *testing.T) {
	if !isValidColorChoice(colorRandom) || !isValidColorChoice("#8c5016") {
		t.Error("expected random and selectable colors to be accepted")
	}
	if isValidColorChoice("#000000") || isValidColorChoice("") {
		t.Error("expected unknown colors to be rejected")
	}
}
