package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mapgrid/usermarks/internal/dispatcher"
	"github.com/mapgrid/usermarks/internal/geo"
	"github.com/mapgrid/usermarks/internal/tiling"
	"github.com/mapgrid/usermarks/pkg/core"
)

// Scenario files drive the generator the way a map frontend would: replace a
// few group collections, toggle visibility, then ask for tiles. Coordinates
// are longitude/latitude and get projected on ingest.

type scenarioMark struct {
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
	Symbol   string  `json:"symbol"`
	Anchor   string  `json:"anchor,omitempty"`
	Depth    float32 `json:"depth,omitempty"`
	Priority uint16  `json:"priority,omitempty"`
}

type scenarioLine struct {
	Points [][]float64 `json:"points"`
	Color  uint32      `json:"color,omitempty"`
	Width  float32     `json:"width,omitempty"`
	Depth  float32     `json:"depth,omitempty"`
}

type scenarioGroup struct {
	Name    string         `json:"name"`
	Visible bool           `json:"visible"`
	Marks   []scenarioMark `json:"marks,omitempty"`
	Lines   []scenarioLine `json:"lines,omitempty"`
}

type scenario struct {
	Groups []scenarioGroup `json:"groups"`
	Tiles  []string        `json:"tiles"`
}

func loadScenario(path string) (*scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var s scenario
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	return &s, nil
}

func anchorFromString(s string) core.Anchor {
	switch s {
	case "bottom":
		return core.AnchorBottom
	case "top":
		return core.AnchorTop
	default:
		return core.AnchorCenter
	}
}

func marksFromScenario(in []scenarioMark) core.MarkCollection {
	marks := make(core.MarkCollection, 0, len(in))
	for _, m := range in {
		marks = append(marks, core.Mark{
			Pivot:    geo.Position3857From4326(m.Lon, m.Lat),
			Symbol:   m.Symbol,
			Anchor:   anchorFromString(m.Anchor),
			Depth:    m.Depth,
			Priority: m.Priority,
		})
	}
	return marks
}

func linesFromScenario(in []scenarioLine) (core.LineCollection, error) {
	lines := make(core.LineCollection, 0, len(in))
	for i, l := range in {
		if len(l.Points) < 2 {
			return nil, fmt.Errorf("line %d: needs at least 2 points", i)
		}
		points := make(core.Polyline, 0, len(l.Points))
		for _, c := range l.Points {
			if len(c) < 2 {
				return nil, fmt.Errorf("line %d: coordinate needs lon and lat", i)
			}
			points = append(points, geo.Position3857From4326(c[0], c[1]))
		}
		lines = append(lines, core.Line{
			Points: points,
			Color:  l.Color,
			Width:  l.Width,
			Depth:  l.Depth,
		})
	}
	return lines, nil
}

// registerHandlers wires the frontend-facing commands onto the dispatcher.
// Payload-carrying commands take the group name in Args[0] and a JSON body
// in Args[1].
func (a *app) registerHandlers() {
	a.disp.Register("group:marks", a.handleGroupMarks, dispatcher.Logged())
	a.disp.Register("group:lines", a.handleGroupLines, dispatcher.Logged())
	a.disp.Register("group:visibility", a.handleGroupVisibility, dispatcher.Logged())
	a.disp.Register("group:clear", a.handleGroupClear, dispatcher.Logged())
	a.disp.Register("tile:generate", a.handleTileGenerate, dispatcher.Logged())
}

func (a *app) handleGroupMarks(e dispatcher.Event) (any, error) {
	if len(e.Args) < 2 {
		return nil, fmt.Errorf("group:marks needs a group name and a payload")
	}
	start := time.Now()
	var in []scenarioMark
	if err := json.Unmarshal([]byte(e.Args[1]), &in); err != nil {
		return nil, fmt.Errorf("parsing marks payload: %w", err)
	}
	marks := marksFromScenario(in)

	info := a.catalog.Register(e.Args[0])
	a.groups[e.Args[0]] = groupState{marks: marks, lines: a.groups[e.Args[0]].lines}
	a.renderer.SetMarks(info.ID, marks)
	a.influx.WriteReindex("marks", info.ID, len(marks), time.Since(start))
	return info.ID, nil
}

func (a *app) handleGroupLines(e dispatcher.Event) (any, error) {
	if len(e.Args) < 2 {
		return nil, fmt.Errorf("group:lines needs a group name and a payload")
	}
	start := time.Now()
	var in []scenarioLine
	if err := json.Unmarshal([]byte(e.Args[1]), &in); err != nil {
		return nil, fmt.Errorf("parsing lines payload: %w", err)
	}
	lines, err := linesFromScenario(in)
	if err != nil {
		return nil, err
	}

	info := a.catalog.Register(e.Args[0])
	a.groups[e.Args[0]] = groupState{marks: a.groups[e.Args[0]].marks, lines: lines}
	a.renderer.SetLines(info.ID, lines)
	a.influx.WriteReindex("lines", info.ID, len(lines), time.Since(start))
	return info.ID, nil
}

func (a *app) handleGroupVisibility(e dispatcher.Event) (any, error) {
	if len(e.Args) < 2 {
		return nil, fmt.Errorf("group:visibility needs a group name and a flag")
	}
	visible, err := strconv.ParseBool(e.Args[1])
	if err != nil {
		return nil, fmt.Errorf("parsing visibility flag: %w", err)
	}
	info := a.catalog.Register(e.Args[0])
	a.catalog.SetVisible(e.Args[0], visible)
	a.renderer.SetVisibility(info.ID, visible)
	return visible, nil
}

func (a *app) handleGroupClear(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("group:clear needs a group name")
	}
	info, ok := a.catalog.Get(e.Args[0])
	if !ok {
		return nil, fmt.Errorf("unknown group: %s", e.Args[0])
	}
	delete(a.groups, e.Args[0])
	a.catalog.Delete(e.Args[0])
	a.renderer.Clear(info.ID)
	a.tileCache.DropGroup(info.ID)
	if err := a.store.DeleteGroup(info.ID); err != nil {
		return nil, fmt.Errorf("deleting persisted group %s: %w", e.Args[0], err)
	}
	return info.ID, nil
}

func (a *app) handleTileGenerate(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("tile:generate needs a z/x/y key")
	}
	key, err := tiling.ParseTileKey(e.Args[0])
	if err != nil {
		return nil, err
	}
	a.renderer.RequestTile(key, a.atlas)
	return key, nil
}

// replay feeds the scenario through the dispatcher in document order: group
// collections and visibility first, tile requests last.
func (a *app) replay(s *scenario) error {
	for _, g := range s.Groups {
		if len(g.Marks) > 0 {
			payload, err := json.Marshal(g.Marks)
			if err != nil {
				return fmt.Errorf("encoding marks for %s: %w", g.Name, err)
			}
			if _, err := a.disp.Dispatch(event("group:marks", g.Name, string(payload))); err != nil {
				return err
			}
		}
		if len(g.Lines) > 0 {
			payload, err := json.Marshal(g.Lines)
			if err != nil {
				return fmt.Errorf("encoding lines for %s: %w", g.Name, err)
			}
			if _, err := a.disp.Dispatch(event("group:lines", g.Name, string(payload))); err != nil {
				return err
			}
		}
		if _, err := a.disp.Dispatch(event("group:visibility", g.Name, strconv.FormatBool(g.Visible))); err != nil {
			return err
		}
	}

	for _, tile := range s.Tiles {
		if _, err := a.disp.Dispatch(event("tile:generate", tile)); err != nil {
			return err
		}
	}
	return nil
}

func event(command string, args ...string) dispatcher.Event {
	return dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	}
}
