package state

// CurrentVersion is the save schema version written by this build.
const CurrentVersion = 3

// Upgrades returns the migration chain for this game's save format.
func Upgrades() Migrations {
	return Migrations{
		0: renameCoinsToGold,
		1: rescaleStability,
		2: nestDiscoveredLocations,
	}
}

// v0 → v1: the early economy called gold "coins".
func renameCoinsToGold(b Blob) Blob {
	res, ok := b["resources"].(map[string]any)
	if !ok {
		return b
	}
	coins, hasCoins := res["coins"]
	if !hasCoins {
		return b
	}
	gold := numberOr(res["gold"], 0)
	res["gold"] = gold + numberOr(coins, 0)
	delete(res, "coins")
	return b
}

// v1 → v2: stability moved from a 0..1 fraction to a 0..100 score.
func rescaleStability(b Blob) Blob {
	s, ok := Number(b["stability"])
	if !ok {
		return b
	}
	if s >= 0 && s <= 1 {
		b["stability"] = s * 100
	}
	return b
}

// v2 → v3: discovered locations lived at the top level before exploration
// became its own substructure.
func nestDiscoveredLocations(b Blob) Blob {
	legacy, ok := b["discovered"].([]any)
	delete(b, "discovered")
	if !ok {
		return b
	}

	exp, ok := b["exploration"].(map[string]any)
	if !ok {
		exp = map[string]any{}
		b["exploration"] = exp
	}
	current, _ := exp["discoveredLocations"].([]any)

	seen := make(map[string]bool, len(current)+len(legacy))
	merged := make([]any, 0, len(current)+len(legacy))
	for _, list := range [][]any{current, legacy} {
		for _, item := range list {
			name, ok := item.(string)
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			merged = append(merged, name)
		}
	}
	exp["discoveredLocations"] = merged
	return b
}
