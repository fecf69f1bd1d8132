package presentation

import (
	"fmt"
	"math/big"

	"heimdall/credential"
	"heimdall/internal/eddsa"
	"heimdall/internal/errs"
	"heimdall/internal/field"
	"heimdall/internal/hashfn"
	"heimdall/revocation"
)

// MaxPolygonSize is the fixed vertex-array length every polygon
// presentation's circuit input is padded to, by repeating the last
// real vertex.
const MaxPolygonSize = 50

// PolygonPresentation proves that the (lat, long) pair read from a
// chosen attribute index lies inside a disclosed polygon, without
// disclosing the coordinates themselves.
type PolygonPresentation struct {
	pres     *Presentation
	index    int
	location []string // raw [lat, long] attribute pair

	vertX, vertY   []*big.Int // padded to MaxPolygonSize
	expectInBound  bool
	attributeCount int
}

var _ Variant = (*PolygonPresentation)(nil)

// NewPolygonPresentation builds a point-in-polygon presentation. index
// names the attribute-pair holding (lat, long): attrs[index] is the
// latitude, attrs[index+1] the longitude. vertX/vertY give the
// polygon's vertices in order; shorter than MaxPolygonSize is padded
// by repeating the last vertex.
func NewPolygonPresentation(
	cred *credential.Credential,
	reg *revocation.Registry,
	index int,
	vertX, vertY []*big.Int,
	challenge *big.Int,
	skHolder *eddsa.PrivateKey,
	pkIssuer *eddsa.PublicKey,
	expiration *big.Int,
	hasher hashfn.Capability,
	artifacts Artifacts,
) (*PolygonPresentation, error) {
	if len(vertX) == 0 || len(vertX) != len(vertY) {
		return nil, errs.New(errs.SchemaError, "polygon vertex arrays must be equal length and non-empty")
	}
	if len(vertX) > MaxPolygonSize {
		return nil, errs.New(errs.SchemaError, "polygon vertex arrays exceed MaxPolygonSize")
	}

	pi, err := BuildPrivateInputs(cred, reg, challenge, skHolder, pkIssuer, expiration, hasher)
	if err != nil {
		return nil, err
	}
	ps, err := BuildPublicSignals(cred, reg, challenge, expiration, pkIssuer, hasher)
	if err != nil {
		return nil, err
	}

	attrs := cred.Attributes()
	if index < 0 || index+1 >= len(attrs) {
		return nil, errs.New(errs.IndexOutOfBounds, "polygon attribute-pair index out of bounds")
	}
	lat, ok := field.ParseDecimal(attrs[index])
	if !ok {
		return nil, errs.New(errs.SchemaError, "polygon latitude attribute is not a decimal integer")
	}
	long, ok := field.ParseDecimal(attrs[index+1])
	if !ok {
		return nil, errs.New(errs.SchemaError, "polygon longitude attribute is not a decimal integer")
	}

	px := padVertices(vertX)
	py := padVertices(vertY)
	inBound := pointInPolygon(lat, long, px, py)

	return &PolygonPresentation{
		pres: &Presentation{
			cred:      cred,
			pi:        pi,
			ps:        ps,
			hasher:    hasher,
			artifacts: artifacts,
		},
		index:          index,
		location:       []string{attrs[index], attrs[index+1]},
		vertX:          px,
		vertY:          py,
		expectInBound:  inBound,
		attributeCount: len(attrs),
	}, nil
}

// Generate produces and self-verifies the point-in-polygon proof.
func (p *PolygonPresentation) Generate() error { return Generate(p.pres, p) }

// Verify re-checks an already-generated proof.
func (p *PolygonPresentation) Verify() error { return Verify(p.pres, p) }

// ExtraInputPairs contributes the index one-hot selector, the raw
// (lat, long) location the circuit point-in-polygon-checks, and the
// padded polygon vertices.
func (p *PolygonPresentation) ExtraInputPairs() []kv {
	oneHot := make([]int, p.attributeCount)
	oneHot[p.index] = 1
	return []kv{
		{"index", intsToStrings(oneHot)},
		{"location", p.location},
		{"vertX", bigIntsToStrings(p.vertX)},
		{"vertY", bigIntsToStrings(p.vertY)},
	}
}

// VerifyExtra checks the in-bound flag, the index one-hot selector,
// and the echoed polygon vertices.
func (p *PolygonPresentation) VerifyExtra(signals []string) error {
	if err := checkSignal(signals, OutVariantBase, boolToInt(p.expectInBound)); err != nil {
		return err
	}
	oneHotBase := OutVariantBase + 1
	for i := 0; i < p.attributeCount; i++ {
		want := int64(0)
		if i == p.index {
			want = 1
		}
		if err := checkSignal(signals, oneHotBase+i, big.NewInt(want)); err != nil {
			return err
		}
	}
	vertXBase := oneHotBase + p.attributeCount
	for i, x := range p.vertX {
		if err := checkSignal(signals, vertXBase+i, x); err != nil {
			return err
		}
	}
	vertYBase := vertXBase + MaxPolygonSize
	for i, y := range p.vertY {
		if err := checkSignal(signals, vertYBase+i, y); err != nil {
			return err
		}
	}
	return nil
}

// Redact drops the raw (lat, long) location; the polygon and selected
// index are disclosed by design of this variant and are kept.
func (p *PolygonPresentation) Redact() {
	p.location = nil
}

// PolygonDocument is a PolygonPresentation's on-disk form.
type PolygonDocument struct {
	Document
	Index          int      `json:"index"`
	VertX          []string `json:"vert_x"`
	VertY          []string `json:"vert_y"`
	InBound        bool     `json:"in_bound"`
	AttributeCount int      `json:"attribute_count"`
}

// Export returns p's on-disk Document. Call only after a successful
// Generate.
func (p *PolygonPresentation) Export() (PolygonDocument, error) {
	core, err := p.pres.Export()
	if err != nil {
		return PolygonDocument{}, err
	}
	return PolygonDocument{
		Document:       core,
		Index:          p.index,
		VertX:          bigIntsToStrings(p.vertX),
		VertY:          bigIntsToStrings(p.vertY),
		InBound:        p.expectInBound,
		AttributeCount: p.attributeCount,
	}, nil
}

// ImportPolygonPresentation rebuilds a PolygonPresentation from a
// persisted Document, sufficient to call Verify but not Generate.
func ImportPolygonPresentation(doc PolygonDocument, artifacts Artifacts) (*PolygonPresentation, error) {
	pres, err := importCore(doc.Document, artifacts)
	if err != nil {
		return nil, err
	}
	vertX, err := stringsToBigInts(doc.VertX, "vert_x")
	if err != nil {
		return nil, err
	}
	vertY, err := stringsToBigInts(doc.VertY, "vert_y")
	if err != nil {
		return nil, err
	}
	return &PolygonPresentation{
		pres:           pres,
		index:          doc.Index,
		vertX:          vertX,
		vertY:          vertY,
		expectInBound:  doc.InBound,
		attributeCount: doc.AttributeCount,
	}, nil
}

func stringsToBigInts(xs []string, field string) ([]*big.Int, error) {
	out := make([]*big.Int, len(xs))
	for i, s := range xs {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, errs.New(errs.DecodeError, fmt.Sprintf("polygon document: %s[%d] is not a decimal integer", field, i))
		}
		out[i] = v
	}
	return out, nil
}

// padVertices right-pads verts to MaxPolygonSize by repeating its last
// element, tolerating the degenerate zero-length edges this produces
// in the ray-casting walk below.
func padVertices(verts []*big.Int) []*big.Int {
	out := make([]*big.Int, MaxPolygonSize)
	copy(out, verts)
	last := verts[len(verts)-1]
	for i := len(verts); i < MaxPolygonSize; i++ {
		out[i] = last
	}
	return out
}

// pointInPolygon is the standard even-odd ray-casting test, generalized
// to arbitrary-precision integer coordinates so it matches exactly what
// an in-circuit fixed-point implementation would decide.
func pointInPolygon(x, y *big.Int, vx, vy []*big.Int) bool {
	inside := false
	n := len(vx)
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := vx[i], vy[i]
		xj, yj := vx[j], vy[j]
		if (yi.Cmp(y) > 0) != (yj.Cmp(y) > 0) {
			num := new(big.Int).Sub(y, yj)
			num.Mul(num, new(big.Int).Sub(xi, xj))
			den := new(big.Int).Sub(yi, yj)
			if den.Sign() != 0 {
				q := new(big.Int).Div(num, den)
				intersectX := new(big.Int).Add(xj, q)
				if x.Cmp(intersectX) < 0 {
					inside = !inside
				}
			}
		}
		j = i
	}
	return inside
}
