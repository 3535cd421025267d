package main

import (
	"github.com/mapgrid/usermarks/internal/render"
)

// staticAtlas is a fixed symbol table standing in for a real texture atlas.
// Symbols are laid out on a 4x4 grid of one 512px page.
type staticAtlas struct {
	regions map[string]render.TextureRegion
}

func newStaticAtlas() *staticAtlas {
	a := &staticAtlas{regions: make(map[string]render.TextureRegion)}
	symbols := []string{
		"pin", "flag", "star", "dot",
		"home", "work", "food", "hotel",
		"fuel", "parking", "camera", "camp",
	}
	for i, name := range symbols {
		col := i % 4
		row := i / 4
		a.regions[name] = render.TextureRegion{
			U0:   float32(col) * 0.25,
			V0:   float32(row) * 0.25,
			U1:   float32(col)*0.25 + 0.25,
			V1:   float32(row)*0.25 + 0.25,
			Page: 0,
		}
	}
	return a
}

func (a *staticAtlas) Texture(symbol string) (render.TextureRegion, bool) {
	r, ok := a.regions[symbol]
	return r, ok
}
