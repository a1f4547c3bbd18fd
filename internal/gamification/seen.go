package gamification

// NewBadges returns the unlocked badge ids missing from seen, keeping the
// order of unlocked
func NewBadges(unlocked, seen []string) []string {
	known := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		known[id] = struct{}{}
	}

	fresh := []string{}
	for _, id := range unlocked {
		if _, ok := known[id]; ok {
			continue
		}
		known[id] = struct{}{}
		fresh = append(fresh, id)
	}
	return fresh
}
