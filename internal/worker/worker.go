// Package worker runs the generator on a single goroutine, giving the index
// core the serialized command stream it assumes.
package worker

import (
	"context"
	"sync/atomic"

	"github.com/mapgrid/usermarks/internal/channel"
	"github.com/mapgrid/usermarks/internal/index"
	"github.com/mapgrid/usermarks/internal/queue"
	"github.com/mapgrid/usermarks/internal/render"
	"github.com/mapgrid/usermarks/internal/tiling"
	"github.com/mapgrid/usermarks/pkg/core"
)

// DefaultCommandBuffer is the command channel capacity.
const DefaultCommandBuffer = 256

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type tileRequest struct {
	key      tiling.TileKey
	textures render.TextureProvider
}

type commandKind uint8

const (
	cmdSetMarks commandKind = iota
	cmdSetLines
	cmdClear
	cmdSetVisibility
	cmdGenerate
)

type command struct {
	kind    commandKind
	group   core.GroupID
	marks   core.MarkCollection
	lines   core.LineCollection
	visible bool
}

// Renderer owns a Generator and applies commands to it one at a time.
// All mutation and generation happens on the Run goroutine; the exported
// methods only enqueue.
type Renderer struct {
	gen      *index.Generator
	commands channel.Channel[command]
	requests *queue.Queue[tileRequest]
	log      Logger

	// snapshot of the index size, readable from any goroutine
	indexedTiles atomic.Int64
}

// NewRenderer creates a renderer around the given generator.
func NewRenderer(gen *index.Generator, log Logger) *Renderer {
	return &Renderer{
		gen:      gen,
		commands: channel.New[command](DefaultCommandBuffer),
		requests: queue.New[tileRequest](),
		log:      log,
	}
}

// Run processes commands until the context is cancelled or Stop is called.
// It must be running for any enqueued command to take effect.
func (r *Renderer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-r.commands.Receive():
			if !ok {
				return
			}
			r.apply(cmd)
		}
	}
}

// Stop closes the command stream; Run returns after draining what it already
// received. Enqueueing after Stop panics.
func (r *Renderer) Stop() {
	r.commands.Close()
}

// SetMarks enqueues a whole-collection replacement of the group's marks.
func (r *Renderer) SetMarks(group core.GroupID, marks core.MarkCollection) {
	r.commands.Send(command{kind: cmdSetMarks, group: group, marks: marks})
}

// SetLines enqueues a whole-collection replacement of the group's lines.
func (r *Renderer) SetLines(group core.GroupID, lines core.LineCollection) {
	r.commands.Send(command{kind: cmdSetLines, group: group, lines: lines})
}

// Clear enqueues removal of the group's collections and visibility.
func (r *Renderer) Clear(group core.GroupID) {
	r.commands.Send(command{kind: cmdClear, group: group})
}

// SetVisibility enqueues a visibility toggle for the group.
func (r *Renderer) SetVisibility(group core.GroupID, visible bool) {
	r.commands.Send(command{kind: cmdSetVisibility, group: group, visible: visible})
}

// RequestTile asks for geometry for one tile. The request is parked in the
// pending queue and a generate command enters the stream behind everything
// already enqueued; each generate command consumes exactly one request, so a
// request is never processed before the mutations enqueued ahead of it.
// The texture provider must stay valid until the request is processed.
func (r *Renderer) RequestTile(key tiling.TileKey, textures render.TextureProvider) {
	r.requests.Push(tileRequest{key: key, textures: textures})
	r.commands.Send(command{kind: cmdGenerate})
}

// PendingCommands returns the number of enqueued, unprocessed commands.
func (r *Renderer) PendingCommands() int {
	return r.commands.Len()
}

// PendingTiles returns the number of tile requests not yet generated.
func (r *Renderer) PendingTiles() int {
	return r.requests.Len()
}

// IndexedTiles returns the index size as of the last processed command.
func (r *Renderer) IndexedTiles() int {
	return int(r.indexedTiles.Load())
}

func (r *Renderer) apply(cmd command) {
	switch cmd.kind {
	case cmdSetMarks:
		r.gen.SetMarks(cmd.group, cmd.marks)
	case cmdSetLines:
		r.gen.SetLines(cmd.group, cmd.lines)
	case cmdClear:
		r.gen.Clear(cmd.group)
	case cmdSetVisibility:
		r.gen.SetVisibility(cmd.group, cmd.visible)
	case cmdGenerate:
		if !r.requests.Empty() {
			req := r.requests.Pop()
			r.gen.Generate(req.key, req.textures)
		}
	default:
		if r.log != nil {
			r.log.Error("unknown renderer command", "kind", int(cmd.kind))
		}
	}
	r.indexedTiles.Store(int64(r.gen.IndexedTileCount()))
}
