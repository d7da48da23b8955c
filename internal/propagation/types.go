package propagation

import "github.com/star/orbitgo/internal/orbit"

// DefaultChunkSize is the number of time samples handed to a worker at once.
const DefaultChunkSize = 1024

// Sample is the planet state at one time of a track.
type Sample struct {
	Time              float64
	Position          orbit.Vec
	Velocity          orbit.Vec
	ProjectedDistance float64
}

// PropConfig holds propagation configuration.
type PropConfig struct {
	Workers   int // Worker pool size
	ChunkSize int // Samples per job (default: DefaultChunkSize)
}
