package reveal

import (
	"bytes"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Surface is the live output the renderer writes into. Implementations must
// tolerate rapid successive SetContent calls; every call carries the complete
// markup rendered so far, never a delta.
type Surface interface {
	SetContent(html string)
}

type Options struct {
	Animate bool
	// OnComplete fires exactly once, after the surface holds the full
	// content, whether the reveal ran to the end or was disposed early.
	OnComplete func()
}

// Renderer progressively reveals rich-text answers at a fixed tick interval.
type Renderer struct {
	tick time.Duration
}

func NewRenderer(tick time.Duration) *Renderer {
	if tick <= 0 {
		tick = 30 * time.Millisecond
	}
	return &Renderer{tick: tick}
}

// leafState tracks the reveal cursor for one text leaf of the cloned tree.
type leafState struct {
	node *html.Node
	full []rune
	pos  int
}

type animation struct {
	mu        sync.Mutex
	surface   Surface
	roots     []*html.Node
	leaves    []*leafState
	idx       int
	fullHTML  string
	done      bool // natural completion
	disposed  bool
	stopc     chan struct{}
	onDone    func()
}

// Reveal drives the surface through the typing animation and returns a
// disposer. Element structure is preserved exactly; only text leaves grow.
// Disposal at any point forces the surface to the full final content.
func (r *Renderer) Reveal(richText string, surface Surface, opts Options) func() {
	complete := func() {
		if opts.OnComplete != nil {
			opts.OnComplete()
		}
	}

	roots, err := parseFragment(richText)
	if !opts.Animate || err != nil || len(roots) == 0 {
		surface.SetContent(richText)
		complete()
		return func() {}
	}

	a := &animation{
		surface:  surface,
		fullHTML: renderNodes(roots),
		stopc:    make(chan struct{}),
		onDone:   complete,
	}
	for _, root := range roots {
		a.roots = append(a.roots, a.clone(root))
	}
	if len(a.leaves) == 0 {
		// Markup with no text at all reveals in a single step.
		surface.SetContent(a.fullHTML)
		complete()
		return func() {}
	}

	go a.run(r.tick)
	return a.dispose
}

func (a *animation) run(tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-a.stopc:
			return
		case <-t.C:
			if a.step() {
				a.onDone()
				return
			}
		}
	}
}

// step advances the current leaf by one chunk and repaints. Returns true on
// natural completion.
func (a *animation) step() bool {
	a.mu.Lock()
	if a.disposed || a.done {
		a.mu.Unlock()
		return false
	}

	leaf := a.leaves[a.idx]
	leaf.pos += chunkSize(len(leaf.full))
	if leaf.pos >= len(leaf.full) {
		leaf.pos = len(leaf.full)
	}
	leaf.node.Data = string(leaf.full[:leaf.pos])
	for a.idx < len(a.leaves) && a.leaves[a.idx].pos >= len(a.leaves[a.idx].full) {
		a.idx++
	}
	finished := a.idx >= len(a.leaves)
	if finished {
		a.done = true
	}
	// Paint under the lock so a concurrent dispose cannot slip its full-flush
	// in between render and write, leaving a stale partial frame on top.
	a.surface.SetContent(renderNodes(a.roots))
	a.mu.Unlock()
	return finished
}

// dispose stops the animation and synchronously flushes the full content. A
// partial reveal is never left visible. Safe to call more than once, and a
// no-op after natural completion.
func (a *animation) dispose() {
	a.mu.Lock()
	if a.disposed || a.done {
		a.mu.Unlock()
		return
	}
	a.disposed = true
	close(a.stopc)
	a.surface.SetContent(a.fullHTML)
	a.mu.Unlock()
	a.onDone()
}

// clone copies a node subtree. Text leaves start empty and are registered for
// progressive fill; everything else is cloned verbatim so later siblings keep
// their positions from the first frame on.
func (a *animation) clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	if n.Type == html.TextNode {
		c.Data = ""
		a.leaves = append(a.leaves, &leafState{node: c, full: []rune(n.Data)})
		return c
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(a.clone(child))
	}
	return c
}

// chunkSize maps total leaf length to characters revealed per tick, so long
// answers finish in roughly bounded time.
func chunkSize(total int) int {
	switch {
	case total > 800:
		return 6
	case total > 400:
		return 4
	case total > 200:
		return 3
	default:
		return 2
	}
}

func parseFragment(richText string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(richText), ctx)
}

func renderNodes(roots []*html.Node) string {
	var buf bytes.Buffer
	for _, n := range roots {
		_ = html.Render(&buf, n)
	}
	return buf.String()
}
