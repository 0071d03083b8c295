package layout

// Geometry holds every spacing and size constant the engine uses. The zero
// value is not useful; start from DefaultGeometry and override fields.
type Geometry struct {
	// Group packing.
	GroupSpacingX float64
	LevelSpacingY float64
	BaseMarginX   float64
	BaseMarginY   float64

	// Device grid inside a group.
	GridX         float64
	GridY         float64
	DeviceMarginX float64
	DeviceMarginY float64
	DeviceWidth   float64
	DeviceHeight  float64
	GroupPadding  float64

	// Group sizes used when nothing else applies.
	EmptyGroupWidth     float64
	EmptyGroupHeight    float64
	FallbackGroupWidth  float64
	FallbackGroupHeight float64

	// Canvas.
	MinCanvasWidth  float64
	MinCanvasHeight float64
	CanvasMargin    float64

	// Standalone row.
	StandaloneSpacing float64
	StandaloneGap     float64

	// Device glyph.
	DeviceCenterDX   float64
	DeviceCenterDY   float64
	InterfaceSize    float64
	InterfaceGap     float64
	InterfaceOffsetY float64
	InterfaceMissDY  float64
}

// DefaultGeometry returns the standard constants.
func DefaultGeometry() Geometry {
	return Geometry{
		GroupSpacingX: 20,
		LevelSpacingY: 50,
		BaseMarginX:   50,
		BaseMarginY:   50,

		GridX:         100,
		GridY:         80,
		DeviceMarginX: 20,
		DeviceMarginY: 40,
		DeviceWidth:   90,
		DeviceHeight:  70,
		GroupPadding:  40,

		EmptyGroupWidth:     150,
		EmptyGroupHeight:    100,
		FallbackGroupWidth:  350,
		FallbackGroupHeight: 150,

		MinCanvasWidth:  1400,
		MinCanvasHeight: 1000,
		CanvasMargin:    100,

		StandaloneSpacing: 150,
		StandaloneGap:     50,

		DeviceCenterDX:   40,
		DeviceCenterDY:   15,
		InterfaceSize:    12,
		InterfaceGap:     6,
		InterfaceOffsetY: 40,
		InterfaceMissDY:  45,
	}
}

// Point is a position on the canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Rect is an axis-aligned box with its origin at the top-left.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Intersects reports whether r and o share interior area. Boxes that only
// touch along an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Canvas is the drawing area needed to show every placed element.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (g Geometry) canvasFor(right, bottom float64) Canvas {
	return Canvas{
		Width:  max(g.MinCanvasWidth, right+g.CanvasMargin),
		Height: max(g.MinCanvasHeight, bottom+g.CanvasMargin),
	}
}
