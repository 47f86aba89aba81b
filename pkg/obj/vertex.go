package obj

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/Faultbox/objscene/pkg/math"
)

// maxTokens bounds the number of tokens on a single record. Exceeding it is
// a format error rather than a silent truncation.
const maxTokens = 1024

// splitFields appends the whitespace-delimited fields of line to toks and
// returns it. The returned slices borrow the line's backing storage; they
// are valid until the next line is read.
func splitFields(line []byte, toks [][]byte) ([][]byte, error) {
	start := -1
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f' {
			if start >= 0 {
				if len(toks) >= maxTokens {
					return nil, ErrTooManyTokens
				}
				toks = append(toks, line[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		if len(toks) >= maxTokens {
			return nil, ErrTooManyTokens
		}
		toks = append(toks, line[start:])
	}
	return toks, nil
}

func parseFloat(tok []byte) (float32, error) {
	f, err := strconv.ParseFloat(string(tok), 32)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", tok)
	}
	return float32(f), nil
}

func parseVec2(toks [][]byte) (math.Vec2, error) {
	if len(toks) < 2 {
		return math.Vec2{}, ErrMissingTokens
	}
	var v math.Vec2
	var err error
	if v.X, err = parseFloat(toks[0]); err != nil {
		return v, err
	}
	if v.Y, err = parseFloat(toks[1]); err != nil {
		return v, err
	}
	return v, nil
}

func parseVec3(toks [][]byte) (math.Vec3, error) {
	if len(toks) < 3 {
		return math.Vec3{}, ErrMissingTokens
	}
	var v math.Vec3
	var err error
	if v.X, err = parseFloat(toks[0]); err != nil {
		return v, err
	}
	if v.Y, err = parseFloat(toks[1]); err != nil {
		return v, err
	}
	if v.Z, err = parseFloat(toks[2]); err != nil {
		return v, err
	}
	return v, nil
}

func parseAffine3(toks [][]byte) (math.Affine3, error) {
	var a math.Affine3
	if len(toks) < 12 {
		return a, ErrMissingTokens
	}
	for i := 0; i < 12; i++ {
		f, err := parseFloat(toks[i])
		if err != nil {
			return a, err
		}
		a[i] = f
	}
	return a, nil
}

// vertRef references one vertex's attributes by pool index. -1 means the
// attribute is absent. Two references with equal components are the same
// local vertex.
type vertRef struct {
	pos, texcoord, norm, color, radius int32
}

// attrPools holds the raw attribute values in file order. The same struct
// doubles as the per-shape pending vertex buffers.
type attrPools struct {
	pos      []math.Vec3
	texcoord []math.Vec2
	norm     []math.Vec3
	color    []math.Vec3
	radius   []float32
}

func (p *attrPools) reset() {
	p.pos = p.pos[:0]
	p.texcoord = p.texcoord[:0]
	p.norm = p.norm[:0]
	p.color = p.color[:0]
	p.radius = p.radius[:0]
}

// parseVertRef parses an OBJ vertex reference of up to five slash-separated
// indices (pos/texcoord/norm/color/radius). Negative indices are relative to
// the current pool length; positive indices are 1-based. Every present index
// must resolve inside its pool.
func (p *attrPools) parseVertRef(tok []byte) (vertRef, error) {
	ref := vertRef{-1, -1, -1, -1, -1}
	lens := [5]int32{
		int32(len(p.pos)), int32(len(p.texcoord)), int32(len(p.norm)),
		int32(len(p.color)), int32(len(p.radius)),
	}
	dst := [5]*int32{&ref.pos, &ref.texcoord, &ref.norm, &ref.color, &ref.radius}

	slot := 0
	for len(tok) > 0 && slot < 5 {
		var part []byte
		if j := bytes.IndexByte(tok, '/'); j >= 0 {
			part, tok = tok[:j], tok[j+1:]
		} else {
			part, tok = tok, nil
		}
		if len(part) > 0 {
			n, err := strconv.Atoi(string(part))
			if err != nil {
				return ref, fmt.Errorf("bad vertex index %q", part)
			}
			v := int32(n)
			if v < 0 {
				v += lens[slot]
			} else {
				v--
			}
			if v < 0 || v >= lens[slot] {
				return ref, fmt.Errorf("%w: %s", ErrIndexRange, part)
			}
			*dst[slot] = v
		}
		slot++
	}
	return ref, nil
}

// vertTable maps attribute references to local vertex ids within the shape
// being assembled. Insertion order assigns ids from 0. The table is cleared
// on every shape flush, including the one triggered by camera and
// environment records.
type vertTable struct {
	refs map[vertRef]int32
	next int32
}

func newVertTable() *vertTable {
	return &vertTable{refs: make(map[vertRef]int32)}
}

// resolve returns the local id for ref, assigning a new one on first sight.
func (t *vertTable) resolve(ref vertRef) (vid int32, isNew bool) {
	if vid, ok := t.refs[ref]; ok {
		return vid, false
	}
	vid = t.next
	t.refs[ref] = vid
	t.next++
	return vid, true
}

func (t *vertTable) reset() {
	clear(t.refs)
	t.next = 0
}
