package expr

import "strconv"

// Env is the variable environment a preset's equation program runs against.
// Every variable is a float64 slot, interned by name on first use. Slots
// persist for the lifetime of the active preset; a preset change discards
// the whole Env.
type Env struct {
	values []float64
	slots  map[string]int

	// isQ marks the q1..q64 user slots, which are the only variables allowed
	// to survive a per-pixel pass.
	isQ []bool

	// snapshot holds pre-pixel-pass values while a pixel pass is running.
	snapshot []float64
	inPixel  bool

	// pixelSlots caches the x/y/rad/ang slot indices for the per-pixel hot loop.
	pixelSlots [4]int
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	e := &Env{
		slots: make(map[string]int, 128),
	}
	e.pixelSlots = [4]int{
		e.Slot("x"), e.Slot("y"), e.Slot("rad"), e.Slot("ang"),
	}
	return e
}

// Slot returns the index for name, interning it with value 0.0 if unseen.
func (e *Env) Slot(name string) int {
	if idx, ok := e.slots[name]; ok {
		return idx
	}
	idx := len(e.values)
	e.slots[name] = idx
	e.values = append(e.values, 0.0)
	e.isQ = append(e.isQ, isQName(name))
	return idx
}

// Set assigns value to name, interning the slot if needed.
func (e *Env) Set(name string, value float64) {
	e.values[e.Slot(name)] = value
}

// Get returns the value bound to name and whether the name has a slot.
func (e *Env) Get(name string) (float64, bool) {
	idx, ok := e.slots[name]
	if !ok {
		return 0, false
	}
	return e.values[idx], true
}

// GetOr returns the value bound to name, or fallback when unbound.
func (e *Env) GetOr(name string, fallback float64) float64 {
	if v, ok := e.Get(name); ok {
		return v
	}
	return fallback
}

// Has reports whether name is bound.
func (e *Env) Has(name string) bool {
	_, ok := e.slots[name]
	return ok
}

// Len returns the number of interned slots.
func (e *Env) Len() int {
	return len(e.values)
}

// BeginPixelPass snapshots the environment before per-pixel evaluation.
// The snapshot buffer is reused across frames, so steady-state passes do
// not allocate.
func (e *Env) BeginPixelPass() {
	if cap(e.snapshot) < len(e.values) {
		e.snapshot = make([]float64, len(e.values))
	}
	e.snapshot = e.snapshot[:len(e.values)]
	copy(e.snapshot, e.values)
	e.inPixel = true
}

// SetPixel binds the per-vertex x/y/rad/ang scalars.
func (e *Env) SetPixel(x, y, rad, ang float64) {
	e.values[e.pixelSlots[0]] = x
	e.values[e.pixelSlots[1]] = y
	e.values[e.pixelSlots[2]] = rad
	e.values[e.pixelSlots[3]] = ang
}

// EndPixelPass restores every slot that existed at BeginPixelPass to its
// pre-pass value, except the q1..q64 user slots which carry pixel-pass
// writes back out. Slots interned during the pass keep their values.
func (e *Env) EndPixelPass() {
	if !e.inPixel {
		return
	}
	for i := range e.snapshot {
		if !e.isQ[i] {
			e.values[i] = e.snapshot[i]
		}
	}
	e.inPixel = false
}

// isQName reports whether name is one of the user slots q1..q64.
func isQName(name string) bool {
	if len(name) < 2 || len(name) > 3 || name[0] != 'q' {
		return false
	}
	n, err := strconv.Atoi(name[1:])
	return err == nil && n >= 1 && n <= 64
}
