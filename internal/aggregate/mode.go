package aggregate

// Mode tracks the most frequent non-empty string. Ties go to the value seen
// first.
type Mode struct {
	counts map[string]int
	order  []string
}

func NewMode() *Mode { return &Mode{counts: map[string]int{}} }

// Add counts v; empty strings are ignored.
func (m *Mode) Add(v string) {
	if v == "" {
		return
	}
	if _, ok := m.counts[v]; !ok {
		m.order = append(m.order, v)
	}
	m.counts[v]++
}

// Value returns the mode and its count, or "" when nothing was added.
func (m *Mode) Value() (string, int) {
	best, bestN := "", 0
	for _, v := range m.order {
		if n := m.counts[v]; n > bestN {
			best, bestN = v, n
		}
	}
	return best, bestN
}
