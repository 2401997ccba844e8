package component

// Draw is what the renderer needs from an entity: the current animation name
// and an optional RGBA tint. The renderer itself lives outside the core.
type Draw struct {
	Animation  string
	Animations []string
	Tint       uint32 // 0 = no tint
}

// Text is a world-space label such as a puzzle hint.
type Text struct {
	Text      string
	Scale     float64
	Color     uint32
	MaxRadius float64 // fully faded beyond this distance from the hero
	MinAlpha  float64
	Alpha     float64 // current opacity, kept up to date by HintFadeSystem
}

// FadeAt is the opacity seen from distance: opaque up close, fading linearly
// to MinAlpha at MaxRadius and beyond. MaxRadius <= 0 never fades.
func (t *Text) FadeAt(distance float64) float64 {
	if t.MaxRadius <= 0 || distance <= 0 {
		return 1
	}
	if distance >= t.MaxRadius {
		return t.MinAlpha
	}
	return 1 - (1-t.MinAlpha)*(distance/t.MaxRadius)
}
