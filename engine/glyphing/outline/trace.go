package outline

import (
	"github.com/npillmayer/asefont/engine/glyphing"
)

// Directions of unit edges, in clockwise order. Turning right means stepping
// to the next direction.
const (
	east = iota
	south
	west
	north
)

var delta = [4][2]int{{1, 0}, {0, -1}, {-1, 0}, {0, 1}}

// vertex is a grid position in pixels, y pointing upwards and 0 at the bottom
// of the bitmap.
type vertex struct {
	x, y int
}

type edge struct {
	from vertex
	dir  int
	used bool
}

// edgeGraph holds all boundary edges of a bitmap. Every vertex has at most two
// outgoing edges.
type edgeGraph struct {
	w     int // bitmap width
	edges []edge
	out   [][2]int32 // outgoing edges per vertex, -1 if unset
}

func (eg *edgeGraph) index(v vertex) int {
	return v.y*(eg.w+1) + v.x
}

func (eg *edgeGraph) add(x, y, dir int) {
	v := vertex{x, y}
	i := eg.index(v)
	e := int32(len(eg.edges))
	if eg.out[i][0] < 0 {
		eg.out[i][0] = e
	} else {
		eg.out[i][1] = e
	}
	eg.edges = append(eg.edges, edge{from: v, dir: dir})
}

// boundary collects the edges between on and off pixels, each directed such
// that the on pixel is on its right.
func boundary(bm *glyphing.Bitmap) *edgeGraph {
	eg := &edgeGraph{w: bm.W, out: make([][2]int32, (bm.W+1)*(bm.H+1))}
	for i := range eg.out {
		eg.out[i] = [2]int32{-1, -1}
	}
	for py := 0; py < bm.H; py++ {
		r := bm.H - 1 - py
		for px := 0; px < bm.W; px++ {
			if !bm.At(px, py) {
				continue
			}
			if !bm.At(px, py-1) {
				eg.add(px, r+1, east)
			}
			if !bm.At(px+1, py) {
				eg.add(px+1, r+1, south)
			}
			if !bm.At(px, py+1) {
				eg.add(px+1, r, west)
			}
			if !bm.At(px-1, py) {
				eg.add(px, r, north)
			}
		}
	}
	return eg
}

// next selects the edge to continue with after edge e. At a vertex where two
// regions touch diagonally, it turns right.
func (eg *edgeGraph) next(e int) int {
	cur := eg.edges[e]
	to := vertex{cur.from.x + delta[cur.dir][0], cur.from.y + delta[cur.dir][1]}
	out := eg.out[eg.index(to)]
	if out[1] < 0 {
		return int(out[0])
	}
	if eg.edges[out[0]].dir == (cur.dir+1)%4 {
		return int(out[0])
	}
	return int(out[1])
}

// trace links the boundary edges of a bitmap into closed loops and removes
// collinear vertices.
func trace(bm *glyphing.Bitmap) [][]vertex {
	eg := boundary(bm)
	var loops [][]vertex
	for start := range eg.edges {
		if eg.edges[start].used {
			continue
		}
		var loop []edge
		for e := start; !eg.edges[e].used; e = eg.next(e) {
			eg.edges[e].used = true
			loop = append(loop, eg.edges[e])
		}
		loops = append(loops, corners(loop))
	}
	return loops
}

// corners returns the start vertices of edges which change direction.
func corners(loop []edge) []vertex {
	var c []vertex
	for i, e := range loop {
		prev := loop[(i+len(loop)-1)%len(loop)]
		if prev.dir != e.dir {
			c = append(c, e.from)
		}
	}
	return c
}
