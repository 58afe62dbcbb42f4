package nutrition

// Macros is the unit of all nutrition accounting: protein, fat and carb
// grams plus kilocalories. It is an immutable value; arithmetic returns
// new values and never produces negative fields.
type Macros struct {
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbG    float64 `json:"carb_g"`
	Kcal     float64 `json:"kcal"`
}

// Add returns the field-wise sum of m and other.
func (m Macros) Add(other Macros) Macros {
	return Macros{
		ProteinG: m.ProteinG + other.ProteinG,
		FatG:     m.FatG + other.FatG,
		CarbG:    m.CarbG + other.CarbG,
		Kcal:     m.Kcal + other.Kcal,
	}
}

// Sub returns m minus other with every field clamped to zero, so a
// "remaining" amount can never go negative.
func (m Macros) Sub(other Macros) Macros {
	return Macros{
		ProteinG: clampZero(m.ProteinG - other.ProteinG),
		FatG:     clampZero(m.FatG - other.FatG),
		CarbG:    clampZero(m.CarbG - other.CarbG),
		Kcal:     clampZero(m.Kcal - other.Kcal),
	}
}

// IsZero reports whether all fields are zero.
func (m Macros) IsZero() bool {
	return m.ProteinG == 0 && m.FatG == 0 && m.CarbG == 0 && m.Kcal == 0
}

// Valid reports whether every field is non-negative.
func (m Macros) Valid() bool {
	return m.ProteinG >= 0 && m.FatG >= 0 && m.CarbG >= 0 && m.Kcal >= 0
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// SumMacros folds a sequence of macro values into their field-wise total.
func SumMacros(values []Macros) Macros {
	var total Macros
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
