package main

// colorRandom lets the server pick a color for the participant
const colorRandom = "random"

// defaultColorsBySlot is indexed by join or display slot
var defaultColorsBySlot = []string{"#3498db", "#e74c3c", "#2ecc71", "#f1c40f"}

// selectableColors are the colors a participant may ask for
var selectableColors = []string{"#e74c3c", "#3498db", "#2ecc71", "#f1c40f", "#e67e22", "#8c5016", "#ff79c6"}

func isSelectableColor(c string) bool {
	for _, s := range selectableColors {
		if s == c {
			return true
		}
	}
	return false
}

// isValidColorChoice accepts "random" or a selectable color
func isValidColorChoice(c string) bool {
	return c == colorRandom || isSelectableColor(c)
}

// resolveColors assigns one color per participant given their preferences in
// join order. Valid untaken preferences win first come first served; everyone
// else gets the first free default starting at their own slot, then the first
// free selectable color, then the first default.
func resolveColors(prefs []string) []string {
	out := make([]string, len(prefs))
	used := make(map[string]bool, len(prefs))

	for i, p := range prefs {
		if p != colorRandom && isSelectableColor(p) && !used[p] {
			out[i] = p
			used[p] = true
		}
	}

	for i := range prefs {
		if out[i] != "" {
			continue
		}
		out[i] = pickFreeColor(i, used)
		used[out[i]] = true
	}
	return out
}

func pickFreeColor(slot int, used map[string]bool) string {
	n := len(defaultColorsBySlot)
	for k := 0; k < n; k++ {
		c := defaultColorsBySlot[(slot+k)%n]
		if !used[c] {
			return c
		}
	}
	for _, c := range selectableColors {
		if !used[c] {
			return c
		}
	}
	return defaultColorsBySlot[0]
}
