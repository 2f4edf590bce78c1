package spatial

import (
	"github.com/jakecoffman/cp"
	"github.com/plus3/interact/interaction"
)

// PointSource picks the interactable under a pointer.
type PointSource struct {
	Space    *Space
	// Position reports the pointer and whether it is present at all.
	Position func() (cp.Vector, bool)
	Layers   uint

	distance float64
}

func NewPointSource(space *Space, position func() (cp.Vector, bool)) *PointSource {
	return &PointSource{Space: space, Position: position, Layers: AllLayers}
}

func (p *PointSource) ComputeCandidate() interaction.Interactable {
	pos, ok := p.Position()
	if !ok {
		return nil
	}
	target, distance := p.Space.Nearest(pos, 0, p.Layers)
	p.distance = distance
	if target == nil {
		return nil
	}
	return target
}

// CandidateProperties returns the signed distance of the last candidate.
func (p *PointSource) CandidateProperties() any {
	return p.distance
}

// ProximitySource picks the interactable nearest to a position within Range.
type ProximitySource struct {
	Space    *Space
	Position func() cp.Vector
	Range    float64
	Layers   uint

	distance float64
}

func NewProximitySource(space *Space, position func() cp.Vector, reach float64) *ProximitySource {
	return &ProximitySource{Space: space, Position: position, Range: reach, Layers: AllLayers}
}

func (p *ProximitySource) ComputeCandidate() interaction.Interactable {
	target, distance := p.Space.Nearest(p.Position(), p.Range, p.Layers)
	p.distance = distance
	if target == nil {
		return nil
	}
	return target
}

func (p *ProximitySource) CandidateProperties() any {
	return p.distance
}

// DistanceComparator ranks the closer of two float64 distances first.
// Payloads that are not float64 rank last.
var DistanceComparator = interaction.CandidateComparatorFunc(func(a, b any) int {
	da, aok := a.(float64)
	db, bok := b.(float64)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	case da < db:
		return -1
	case da > db:
		return 1
	default:
		return 0
	}
})
