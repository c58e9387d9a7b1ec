package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is a 2D point in path-local coordinates.
type Point struct {
	X float64
	Y float64
}

const curveSteps = 16

// FlattenPath parses a path-description string (the SVG path mini-language:
// M/L/H/V/C/S/Q/T/A/Z, absolute and relative) and flattens every curve and
// arc into line segments. It returns one polyline per subpath.
func FlattenPath(d string) ([][]Point, error) {
	p := &pathScanner{src: d}

	var (
		subpaths [][]Point
		current  []Point
		cur      Point
		start    Point
		lastCmd  byte
		lastCtrl Point // reflected control point for S/T
	)

	flush := func() {
		if len(current) > 0 {
			subpaths = append(subpaths, current)
			current = nil
		}
	}
	emit := func(pt Point) {
		current = append(current, pt)
		cur = pt
	}

	for {
		cmd, ok := p.command()
		if !ok {
			break
		}
		rel := cmd >= 'a'
		abs := func(pt Point) Point {
			if rel {
				return Point{cur.X + pt.X, cur.Y + pt.Y}
			}
			return pt
		}

		switch upper(cmd) {
		case 'M':
			pt, err := p.point()
			if err != nil {
				return nil, err
			}
			flush()
			emit(abs(pt))
			start = cur
			// Subsequent coordinate pairs after a moveto are implicit linetos.
			for p.hasNumber() {
				pt, err := p.point()
				if err != nil {
					return nil, err
				}
				emit(abs(pt))
			}
		case 'L':
			for {
				pt, err := p.point()
				if err != nil {
					return nil, err
				}
				emit(abs(pt))
				if !p.hasNumber() {
					break
				}
			}
		case 'H':
			for {
				x, err := p.number()
				if err != nil {
					return nil, err
				}
				if rel {
					x += cur.X
				}
				emit(Point{x, cur.Y})
				if !p.hasNumber() {
					break
				}
			}
		case 'V':
			for {
				y, err := p.number()
				if err != nil {
					return nil, err
				}
				if rel {
					y += cur.Y
				}
				emit(Point{cur.X, y})
				if !p.hasNumber() {
					break
				}
			}
		case 'C':
			for {
				c1, err := p.point()
				if err != nil {
					return nil, err
				}
				c2, err := p.point()
				if err != nil {
					return nil, err
				}
				end, err := p.point()
				if err != nil {
					return nil, err
				}
				c1, c2, end = abs(c1), abs(c2), abs(end)
				flattenCubic(cur, c1, c2, end, emit)
				lastCtrl = c2
				if !p.hasNumber() {
					break
				}
			}
		case 'S':
			for {
				c2, err := p.point()
				if err != nil {
					return nil, err
				}
				end, err := p.point()
				if err != nil {
					return nil, err
				}
				c2, end = abs(c2), abs(end)
				c1 := cur
				if isCubic(lastCmd) {
					c1 = reflect(cur, lastCtrl)
				}
				flattenCubic(cur, c1, c2, end, emit)
				lastCtrl = c2
				lastCmd = 'C'
				if !p.hasNumber() {
					break
				}
			}
		case 'Q':
			for {
				c, err := p.point()
				if err != nil {
					return nil, err
				}
				end, err := p.point()
				if err != nil {
					return nil, err
				}
				c, end = abs(c), abs(end)
				flattenQuad(cur, c, end, emit)
				lastCtrl = c
				if !p.hasNumber() {
					break
				}
			}
		case 'T':
			for {
				end, err := p.point()
				if err != nil {
					return nil, err
				}
				end = abs(end)
				c := cur
				if isQuad(lastCmd) {
					c = reflect(cur, lastCtrl)
				}
				flattenQuad(cur, c, end, emit)
				lastCtrl = c
				lastCmd = 'Q'
				if !p.hasNumber() {
					break
				}
			}
		case 'A':
			for {
				rx, err := p.number()
				if err != nil {
					return nil, err
				}
				ry, err := p.number()
				if err != nil {
					return nil, err
				}
				rot, err := p.number()
				if err != nil {
					return nil, err
				}
				largeArc, err := p.flag()
				if err != nil {
					return nil, err
				}
				sweep, err := p.flag()
				if err != nil {
					return nil, err
				}
				end, err := p.point()
				if err != nil {
					return nil, err
				}
				end = abs(end)
				flattenArc(cur, end, rx, ry, rot, largeArc, sweep, emit)
				if !p.hasNumber() {
					break
				}
			}
		case 'Z':
			if len(current) > 0 {
				emit(start)
			}
		default:
			return nil, fmt.Errorf("path: unknown command %q", string(cmd))
		}
		lastCmd = upper(cmd)
	}
	flush()

	return subpaths, nil
}

func upper(c byte) byte {
	if c >= 'a' {
		return c - 'a' + 'A'
	}
	return c
}

func isCubic(c byte) bool { return c == 'C' || c == 'S' }
func isQuad(c byte) bool  { return c == 'Q' || c == 'T' }

func reflect(about, pt Point) Point {
	return Point{2*about.X - pt.X, 2*about.Y - pt.Y}
}

func flattenCubic(p0, c1, c2, p1 Point, emit func(Point)) {
	for i := 1; i <= curveSteps; i++ {
		t := float64(i) / curveSteps
		u := 1 - t
		x := u*u*u*p0.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*p1.X
		y := u*u*u*p0.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*p1.Y
		emit(Point{x, y})
	}
}

func flattenQuad(p0, c, p1 Point, emit func(Point)) {
	for i := 1; i <= curveSteps; i++ {
		t := float64(i) / curveSteps
		u := 1 - t
		x := u*u*p0.X + 2*u*t*c.X + t*t*p1.X
		y := u*u*p0.Y + 2*u*t*c.Y + t*t*p1.Y
		emit(Point{x, y})
	}
}

// flattenArc converts an endpoint-parameterized elliptical arc to its center
// form and samples it. Out-of-range radii are scaled up as the SVG spec
// requires; zero radii degrade to a straight line.
func flattenArc(from, to Point, rx, ry, rotDeg float64, largeArc, sweep bool, emit func(Point)) {
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 || (from.X == to.X && from.Y == to.Y) {
		emit(to)
		return
	}

	phi := rotDeg * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	dx2 := (from.X - to.X) / 2
	dy2 := (from.Y - to.Y) / 2
	x1p := cosPhi*dx2 + sinPhi*dy2
	y1p := -sinPhi*dx2 + cosPhi*dy2

	lambda := x1p*x1p/(rx*rx) + y1p*y1p/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	co := 0.0
	if den != 0 && num > 0 {
		co = math.Sqrt(num / den)
	}
	if largeArc == sweep {
		co = -co
	}
	cxp := co * rx * y1p / ry
	cyp := -co * ry * x1p / rx

	cx := cosPhi*cxp - sinPhi*cyp + (from.X+to.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (from.Y+to.Y)/2

	theta1 := math.Atan2((y1p-cyp)/ry, (x1p-cxp)/rx)
	theta2 := math.Atan2((-y1p-cyp)/ry, (-x1p-cxp)/rx)
	delta := theta2 - theta1
	if sweep && delta < 0 {
		delta += 2 * math.Pi
	} else if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	}

	for i := 1; i <= curveSteps; i++ {
		t := theta1 + delta*float64(i)/curveSteps
		px := rx * math.Cos(t)
		py := ry * math.Sin(t)
		emit(Point{
			X: cosPhi*px - sinPhi*py + cx,
			Y: sinPhi*px + cosPhi*py + cy,
		})
	}
}

// pathScanner tokenizes a path-description string.
type pathScanner struct {
	src string
	pos int
}

func (p *pathScanner) skip() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}
		return
	}
}

func (p *pathScanner) command() (byte, bool) {
	p.skip()
	if p.pos >= len(p.src) {
		return 0, false
	}
	c := p.src[p.pos]
	if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
		p.pos++
		return c, true
	}
	return 0, false
}

func (p *pathScanner) hasNumber() bool {
	p.skip()
	if p.pos >= len(p.src) {
		return false
	}
	c := p.src[p.pos]
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

func (p *pathScanner) number() (float64, error) {
	p.skip()
	start := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
		p.pos++
	}
	seenDot := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			p.pos++
			continue
		}
		if c == 'e' || c == 'E' {
			p.pos++
			if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
				p.pos++
			}
			continue
		}
		break
	}
	if p.pos == start {
		return 0, fmt.Errorf("path: expected number at offset %d in %q", start, truncate(p.src))
	}
	return strconv.ParseFloat(p.src[start:p.pos], 64)
}

// point parses a coordinate pair.
func (p *pathScanner) point() (Point, error) {
	x, err := p.number()
	if err != nil {
		return Point{}, err
	}
	y, err := p.number()
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

// flag parses an arc flag, which may be written without a separator from the
// following number ("1 1" and "11" are both valid).
func (p *pathScanner) flag() (bool, error) {
	p.skip()
	if p.pos >= len(p.src) {
		return false, fmt.Errorf("path: expected flag at end of %q", truncate(p.src))
	}
	switch p.src[p.pos] {
	case '0':
		p.pos++
		return false, nil
	case '1':
		p.pos++
		return true, nil
	}
	return false, fmt.Errorf("path: expected flag at offset %d in %q", p.pos, truncate(p.src))
}

func truncate(s string) string {
	if len(s) > 48 {
		return strings.TrimSpace(s[:48]) + "..."
	}
	return s
}
