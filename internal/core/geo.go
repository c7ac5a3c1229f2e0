package core

import "strings"

// GovernorateZones is the governorate to zone lookup used by the receipt
// form. Governorates keep the order they were first seen in.
type GovernorateZones struct {
	Order []string
	Zones map[string][]string
}

// GroupZones builds the lookup from (governorate, zone) pairs. Blank cells
// and duplicate pairs are skipped.
func GroupZones(pairs [][2]string) GovernorateZones {
	g := GovernorateZones{Zones: make(map[string][]string)}
	seen := make(map[[2]string]bool)
	for _, p := range pairs {
		gov, zone := strings.TrimSpace(p[0]), strings.TrimSpace(p[1])
		if gov == "" || zone == "" {
			continue
		}
		key := [2]string{gov, zone}
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := g.Zones[gov]; !ok {
			g.Order = append(g.Order, gov)
		}
		g.Zones[gov] = append(g.Zones[gov], zone)
	}
	return g
}
