package relay

import "strconv"

// AccessGate is the static allow-list. An empty list means open mode: every
// sender is authorized.
type AccessGate struct {
	ids map[string]struct{}
}

func NewAccessGate(allowed []string) *AccessGate {
	g := &AccessGate{}
	if len(allowed) == 0 {
		return g
	}
	g.ids = make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		g.ids[id] = struct{}{}
	}
	return g
}

func (g *AccessGate) Allowed(userID int64) bool {
	if len(g.ids) == 0 {
		return true
	}
	_, ok := g.ids[strconv.FormatInt(userID, 10)]
	return ok
}
