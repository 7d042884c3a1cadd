package estimate

// SeedAmount returns the number of seeds or plants needed to cover area at
// density seeds per unit area. It does not validate its inputs.
func SeedAmount(area float64, density int) float64 {
	return area * float64(density)
}
