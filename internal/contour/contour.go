package contour

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// BorderType distinguishes the two kinds of border the tracer produces.
type BorderType int

const (
	// Hole is the border between a background hole and the foreground around it.
	// The image frame is treated as a hole border.
	Hole BorderType = iota + 1

	// Outer is the border between a foreground region and the background around it.
	Outer
)

// frameID is the border number reserved for the image frame.
const frameID = 1

// Contour is a closed, ordered sequence of boundary points.
type Contour []image.Point

// Border is one traced border together with its place in the hierarchy.
type Border struct {
	// ID is the border number assigned during the raster scan (2, 3, ...).
	ID int

	// Type is Outer or Hole.
	Type BorderType

	// Parent is the ID of the enclosing border. The frame has ID 1.
	Parent int

	// Points is the full, uncompressed border in tracing order.
	Points Contour
}

// IsExternal reports whether the border is an outer border directly inside the frame.
func (b Border) IsExternal() bool {
	return b.Type == Outer && b.Parent == frameID
}

// neighbourhood lists the 8 neighbours of a pixel in clockwise order (rows grow
// downward), starting east. Offsets are (row, col).
var neighbourhood = [8][2]int{
	{0, 1},   // E
	{1, 1},   // SE
	{1, 0},   // S
	{1, -1},  // SW
	{0, -1},  // W
	{-1, -1}, // NW
	{-1, 0},  // N
	{-1, 1},  // NE
}

// direction returns the index into neighbourhood of (r, c) relative to the centre (cr, cc).
func direction(cr, cc, r, c int) int {
	dr, dc := r-cr, c-cc
	for i, d := range neighbourhood {
		if d[0] == dr && d[1] == dc {
			return i
		}
	}
	return -1
}

// Find traces every border in a binary matrix.
//
// Parameters:
//   - binary: rows × cols matrix; any non-zero value is foreground. The matrix
//     is not modified.
//
// Returns the borders in the order their starting pixel is met by a raster
// scan (row by row, left to right). The frame ring is cleared before
// tracing, so regions touching the image edge are traced one pixel inside it.
//
// # Algorithm
//
// Suzuki & Abe (1985), "Topological structural analysis of digitized binary
// images by border following", algorithm 1 with 8-connectivity:
//
//  1. Raster scan. A pixel starts an outer border if it is 1 and its west
//     neighbour is 0; it starts a hole border if it is >= 1 and its east
//     neighbour is 0.
//  2. The parent is derived from LNBD, the last border met on the row.
//  3. The border is followed counter-clockwise, labelling pixels NBD, or -NBD
//     where the east neighbour is background.
//  4. LNBD is updated from every non-zero pixel the scan passes.
func Find(binary *mat.Dense) []Border {
	if binary == nil {
		return nil
	}
	rows, cols := binary.Dims()
	if rows < 3 || cols < 3 {
		return nil
	}

	// Work on a label copy; the frame ring is background.
	labels := mat.NewDense(rows, cols, nil)
	for r := 1; r < rows-1; r++ {
		for c := 1; c < cols-1; c++ {
			if binary.At(r, c) != 0 {
				labels.Set(r, c, 1)
			}
		}
	}
	f := func(r, c int) int { return int(labels.At(r, c)) }

	types := map[int]BorderType{frameID: Hole}
	parents := map[int]int{frameID: 0}
	borders := make([]Border, 0)
	nbd := frameID

	for r := 1; r < rows-1; r++ {
		lnbd := frameID
		for c := 1; c < cols-1; c++ {
			v := f(r, c)
			if v == 0 {
				continue
			}

			var fromR, fromC int
			var kind BorderType
			switch {
			case v == 1 && f(r, c-1) == 0:
				kind = Outer
				fromR, fromC = r, c-1
			case v >= 1 && f(r, c+1) == 0:
				kind = Hole
				fromR, fromC = r, c+1
				if v > 1 {
					lnbd = v
				}
			}

			if kind != 0 {
				nbd++
				parent := lnbd
				if types[lnbd] == kind {
					parent = parents[lnbd]
				}
				types[nbd] = kind
				parents[nbd] = parent

				points := follow(labels, r, c, fromR, fromC, nbd)
				borders = append(borders, Border{
					ID:     nbd,
					Type:   kind,
					Parent: parent,
					Points: points,
				})
			}

			if v = f(r, c); v != 1 {
				if v < 0 {
					v = -v
				}
				lnbd = v
			}
		}
	}

	return borders
}

// follow traces one border starting at (r, c) with the first examined
// neighbour (fromR, fromC), labelling pixels in place. It returns the
// border points in tracing order.
func follow(labels *mat.Dense, r, c, fromR, fromC, nbd int) Contour {
	start := image.Point{X: c, Y: r}

	// 3.1: clockwise search around the start for any non-zero pixel.
	d0 := direction(r, c, fromR, fromC)
	firstR, firstC, found := -1, -1, false
	for k := 0; k < 8; k++ {
		d := neighbourhood[(d0+k)%8]
		if labels.At(r+d[0], c+d[1]) != 0 {
			firstR, firstC, found = r+d[0], c+d[1], true
			break
		}
	}
	if !found {
		// Isolated pixel.
		labels.Set(r, c, float64(-nbd))
		return Contour{start}
	}

	points := Contour{start}
	prevR, prevC := firstR, firstC
	curR, curC := r, c

	for {
		// 3.3: counter-clockwise search around the current pixel, starting
		// just after the previous one.
		dPrev := direction(curR, curC, prevR, prevC)
		eastExamined := false
		var nextR, nextC int
		for k := 1; k <= 8; k++ {
			idx := ((dPrev-k)%8 + 8) % 8
			d := neighbourhood[idx]
			nr, nc := curR+d[0], curC+d[1]
			if labels.At(nr, nc) != 0 {
				nextR, nextC = nr, nc
				break
			}
			if idx == 0 {
				eastExamined = true
			}
		}

		// 3.4: label the current pixel.
		switch {
		case eastExamined:
			labels.Set(curR, curC, float64(-nbd))
		case labels.At(curR, curC) == 1:
			labels.Set(curR, curC, float64(nbd))
		}

		// 3.5: back at the start, entering the same way round.
		if nextR == r && nextC == c && curR == firstR && curC == firstC {
			return points
		}

		prevR, prevC = curR, curC
		curR, curC = nextR, nextC
		points = append(points, image.Point{X: curC, Y: curR})
	}
}

// External traces the binary matrix and returns only the external contours,
// simplified, in raster order.
func External(binary *mat.Dense) []Contour {
	borders := Find(binary)
	out := make([]Contour, 0, len(borders))
	for _, b := range borders {
		if b.IsExternal() {
			out = append(out, Simplify(b.Points))
		}
	}
	return out
}
