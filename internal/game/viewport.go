package game

// Viewport maps display coordinates onto the fixed logical board.
type Viewport struct {
	ScaleX float64
	ScaleY float64
}

// NewViewport computes the scale factors for a display of the given size.
// A degenerate display size yields the identity mapping.
func NewViewport(s Settings, displayWidth, displayHeight float64) Viewport {
	if displayWidth <= 0 || displayHeight <= 0 {
		return Viewport{ScaleX: 1, ScaleY: 1}
	}
	return Viewport{
		ScaleX: s.BoardWidth / displayWidth,
		ScaleY: s.BoardHeight / displayHeight,
	}
}

// ToBoard converts a pointer position into board coordinates.
func (v Viewport) ToBoard(x, y float64) Vec2 {
	return Vec2{X: x * v.ScaleX, Y: y * v.ScaleY}
}
