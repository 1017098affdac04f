package town

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Ground is the decorative terrain variation for one tile. Clients use it
// to render a non-flat town; it has no gameplay effect.
type Ground struct {
	X         int     `json:"x"`
	Z         int     `json:"z"`
	Elevation float64 `json:"elevation"` // 0.0-1.0
	Greenery  float64 `json:"greenery"`  // 0.0-1.0, drives grass/tree density
}

// GenerateGround produces the tile elevation/greenery map for the town grid
// using layered simplex noise. Deterministic for a given seed so every
// client renders the same town.
func GenerateGround(seed int64) []Ground {
	elevNoise := opensimplex.NewNormalized(seed)
	greenNoise := opensimplex.NewNormalized(seed + 1)

	tiles := make([]Ground, 0, GridSize*GridSize)
	for x := 0; x < GridSize; x++ {
		for z := 0; z < GridSize; z++ {
			fx, fz := float64(x), float64(z)
			tiles = append(tiles, Ground{
				X:         x,
				Z:         z,
				Elevation: octaveNoise(elevNoise, fx, fz, 3, 0.12, 0.5),
				Greenery:  octaveNoise(greenNoise, fx, fz, 2, 0.18, 0.5),
			})
		}
	}
	return tiles
}

// octaveNoise layers noise at doubling frequencies for natural variation.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
