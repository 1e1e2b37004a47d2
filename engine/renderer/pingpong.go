package renderer

// pingPong tracks which of two peer textures is read from (prev) and which
// is written to (curr) this frame. The pair is owned by the backend; this
// index is the only cyclic state, so there is no ownership cycle between
// the textures themselves.
type pingPong struct {
	role int
}

// Prev returns the index of the texture written last frame.
func (p *pingPong) Prev() int { return p.role }

// Curr returns the index of the texture written this frame.
func (p *pingPong) Curr() int { return p.role ^ 1 }

// Swap exchanges the roles. Called exactly once per frame, after the
// frame's passes have completed.
func (p *pingPong) Swap() { p.role ^= 1 }
