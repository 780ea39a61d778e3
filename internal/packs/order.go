package packs

import "github.com/tennisfel/compendium/internal/foundry"

// OrderScenes sorts scenes so that names listed in curated come first, in the
// listed order, followed by the rest in their existing order. Curated names
// with no matching scene are skipped. Sort values are reassigned to match the
// final order.
func OrderScenes(scenes []*foundry.Scene, curated []string) []*foundry.Scene {
	byName := make(map[string]int, len(scenes))
	for i, s := range scenes {
		if _, dup := byName[s.Name]; !dup {
			byName[s.Name] = i
		}
	}

	taken := make(map[int]struct{}, len(scenes))
	out := make([]*foundry.Scene, 0, len(scenes))
	for _, name := range curated {
		i, ok := byName[name]
		if !ok {
			continue
		}
		if _, dup := taken[i]; dup {
			continue
		}
		taken[i] = struct{}{}
		out = append(out, scenes[i])
	}
	for i, s := range scenes {
		if _, used := taken[i]; !used {
			out = append(out, s)
		}
	}

	for i, s := range out {
		s.Sort = (i + 1) * 100
	}
	return out
}
