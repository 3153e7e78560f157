package components

// MaxDamageReduction caps the combined protective reduction.
const MaxDamageReduction = 0.9

// Contribution is the bonus a single link grants its target.
type Contribution struct {
	DamageBonus   float64 // added to the damage multiplier
	DefenseBonus  float64 // fraction of incoming damage ignored
	FireRateBonus float64 // added to the fire-rate multiplier
	RegenPerSec   float64 // health restored per second
}

type linkContribution struct {
	linkID uint32
	c      Contribution
}

// Modifiers tracks symbiosis contributions per link so that any one of them
// can be removed without disturbing the others. Totals are always recomputed
// from the remaining contributions in link-id order.
type Modifiers struct {
	entries []linkContribution
}

// Add records a link's contribution. A second Add for the same link replaces it.
func (m *Modifiers) Add(linkID uint32, c Contribution) {
	for i := range m.entries {
		if m.entries[i].linkID == linkID {
			m.entries[i].c = c
			return
		}
	}
	// Keep sorted by link id for a deterministic summation order
	idx := len(m.entries)
	for i, e := range m.entries {
		if e.linkID > linkID {
			idx = i
			break
		}
	}
	m.entries = append(m.entries, linkContribution{})
	copy(m.entries[idx+1:], m.entries[idx:])
	m.entries[idx] = linkContribution{linkID: linkID, c: c}
}

// Remove drops a link's contribution. Returns false if the link had none.
func (m *Modifiers) Remove(linkID uint32) bool {
	for i, e := range m.entries {
		if e.linkID == linkID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Count returns the number of contributing links.
func (m *Modifiers) Count() int {
	return len(m.entries)
}

// Total sums all contributions.
func (m *Modifiers) Total() Contribution {
	var t Contribution
	for _, e := range m.entries {
		t.DamageBonus += e.c.DamageBonus
		t.DefenseBonus += e.c.DefenseBonus
		t.FireRateBonus += e.c.FireRateBonus
		t.RegenPerSec += e.c.RegenPerSec
	}
	return t
}

// DamageMultiplier is 1 plus the summed damage bonuses.
func (m *Modifiers) DamageMultiplier() float64 {
	return 1 + m.Total().DamageBonus
}

// DamageTakenFactor is the fraction of incoming damage that still lands.
func (m *Modifiers) DamageTakenFactor() float64 {
	r := m.Total().DefenseBonus
	if r > MaxDamageReduction {
		r = MaxDamageReduction
	}
	if r < 0 {
		r = 0
	}
	return 1 - r
}

// FireRateMultiplier is 1 plus the summed fire-rate bonuses.
func (m *Modifiers) FireRateMultiplier() float64 {
	return 1 + m.Total().FireRateBonus
}

// RegenPerSec is the summed healing rate.
func (m *Modifiers) RegenPerSec() float64 {
	return m.Total().RegenPerSec
}
