// Package spatial provides candidate sources backed by a chipmunk2d space.
// Targets are registered as static shapes and looked up by point queries, so
// agents can hover whatever lies under a pointer or nearest to a position.
package spatial

import (
	"github.com/jakecoffman/cp"
	"github.com/kamstrup/intmap"
	"github.com/plus3/interact/interaction"
)

// AllLayers matches every shape.
const AllLayers = ^uint(0)

// Space indexes interactables by shape. Each interactable owns at most one shape;
// placing it again replaces the previous shape.
type Space struct {
	space  *cp.Space
	shapes *intmap.Map[interaction.Identifier, *cp.Shape]
}

func NewSpace() *Space {
	return &Space{
		space:  cp.NewSpace(),
		shapes: intmap.New[interaction.Identifier, *cp.Shape](64),
	}
}

// PlaceBox registers target as the axis-aligned box bb on the given layers.
func (s *Space) PlaceBox(target interaction.Interactable, bb cp.BB, layers uint) {
	s.place(target, cp.NewBox2(s.space.StaticBody, bb, 0), layers)
}

// PlaceCircle registers target as a circle on the given layers.
func (s *Space) PlaceCircle(target interaction.Interactable, center cp.Vector, radius float64, layers uint) {
	s.place(target, cp.NewCircle(s.space.StaticBody, radius, center), layers)
}

func (s *Space) place(target interaction.Interactable, shape *cp.Shape, layers uint) {
	s.Remove(target)
	shape.UserData = target
	shape.SetFilter(cp.ShapeFilter{Categories: layers, Mask: AllLayers})
	s.space.AddShape(shape)
	s.shapes.Put(target.ID(), shape)
}

// Remove drops target's shape. It reports whether target was placed.
func (s *Space) Remove(target interaction.Interactable) bool {
	shape, ok := s.shapes.Get(target.ID())
	if !ok {
		return false
	}
	s.space.RemoveShape(shape)
	s.shapes.Del(target.ID())
	return true
}

// Contains reports whether target has a shape in the space.
func (s *Space) Contains(target interaction.Interactable) bool {
	return s.shapes.Has(target.ID())
}

func (s *Space) Len() int {
	return s.shapes.Len()
}

// Nearest returns the interactable whose shape is closest to point within
// maxDistance, and the signed distance to it (negative inside the shape).
func (s *Space) Nearest(point cp.Vector, maxDistance float64, layers uint) (interaction.Interactable, float64) {
	filter := cp.ShapeFilter{Categories: AllLayers, Mask: layers}
	info := s.space.PointQueryNearest(point, maxDistance, filter)
	if info == nil || info.Shape == nil {
		return nil, maxDistance
	}
	target, ok := info.Shape.UserData.(interaction.Interactable)
	if !ok {
		return nil, maxDistance
	}
	return target, info.Distance
}
