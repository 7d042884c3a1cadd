package estimate

import "testing"

func TestSeedAmount(t *testing.T) {
	tests := []struct {
		name    string
		area    float64
		density int
		want    float64
	}{
		{"zero area", 0, 10, 0},
		{"zero density", 2401, 0, 0},
		{"square", 2401, 10, 24010},
		{"fractional area", 12.5, 4, 50},
		{"large", 1e9, 1000, 1e12},
		{"negative density passes through", 100, -3, -300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SeedAmount(tt.area, tt.density); got != tt.want {
				t.Errorf("SeedAmount(%v, %d) = %v, want %v", tt.area, tt.density, got, tt.want)
			}
		})
	}
}

func TestSeedAmount_ExactProduct(t *testing.T) {
	for _, area := range []float64{0.1, 1.0 / 3, 2500, 123456.789} {
		for _, d := range []int{1, 7, 10, 999} {
			if got, want := SeedAmount(area, d), area*float64(d); got != want {
				t.Errorf("SeedAmount(%v, %d) = %v, want %v", area, d, got, want)
			}
		}
	}
}
