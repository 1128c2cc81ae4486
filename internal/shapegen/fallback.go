package shapegen

// Shape names offered by the Dalgona game, in menu order.
const (
	Triangle = "triangle"
	Circle   = "circle"
	Star     = "star"
	Umbrella = "umbrella"
)

var fallbackPaths = map[string]string{
	Triangle: "M 50 15 L 85 85 L 15 85 Z",
	Circle:   "M 50, 50 m -35, 0 a 35,35 0 1,0 70,0 a 35,35 0 1,0 -70,0",
	Star:     "M 50,5 L 61,40 L 98,40 L 68,62 L 79,96 L 50,75 L 21,96 L 32,62 L 2,40 L 39,40 Z",
	Umbrella: "M 50 20 C 20 20, 20 50, 20 50 L 80 50 C 80 50, 80 20, 50 20 Z M 50 50 L 50 80 M 40 80 C 40 90, 50 90, 50 80",
}

// Shapes lists the known shapes.
func Shapes() []string {
	return []string{Triangle, Circle, Star, Umbrella}
}

// Fallback returns the built-in outline for shape. Unknown shapes get the
// triangle.
func Fallback(shape string) string {
	if p, ok := fallbackPaths[shape]; ok {
		return p
	}
	return fallbackPaths[Triangle]
}
