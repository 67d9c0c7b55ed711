package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Transform is an affine map from one document's coordinate space to
// another's, stored as a 4x4 homogeneous matrix. The zero value is not
// usable; construct through Identity, Translation, RotationZ, or
// NewTransform. Link relationships with no resolvable transform are
// represented as a nil *Transform, not as an identity transform.
type Transform struct {
	m *mat.Dense
}

// Identity returns the identity transform.
func Identity() Transform {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return Transform{m: m}
}

// Translation returns a pure translation transform.
func Translation(dx, dy, dz float64) Transform {
	t := Identity()
	t.m.Set(0, 3, dx)
	t.m.Set(1, 3, dy)
	t.m.Set(2, 3, dz)
	return t
}

// RotationZ returns a rotation about the Z axis by the given angle in
// radians.
func RotationZ(rad float64) Transform {
	sin, cos := math.Sincos(rad)
	t := Identity()
	t.m.Set(0, 0, cos)
	t.m.Set(0, 1, -sin)
	t.m.Set(1, 0, sin)
	t.m.Set(1, 1, cos)
	return t
}

// NewTransform builds a transform from three basis vectors and an origin,
// the form link placements are exported in.
func NewTransform(basisX, basisY, basisZ, origin Point) Transform {
	return Transform{m: mat.NewDense(4, 4, []float64{
		basisX.X, basisY.X, basisZ.X, origin.X,
		basisX.Y, basisY.Y, basisZ.Y, origin.Y,
		basisX.Z, basisY.Z, basisZ.Z, origin.Z,
		0, 0, 0, 1,
	})}
}

// Compose returns the transform that applies o first and then t.
func (t Transform) Compose(o Transform) Transform {
	var out mat.Dense
	out.Mul(t.m, o.m)
	return Transform{m: &out}
}

// Apply maps a point through the transform.
func (t Transform) Apply(p Point) Point {
	v := mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, 1})
	var out mat.VecDense
	out.MulVec(t.m, v)
	return Point{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// Inverse returns the inverse transform, or false if the matrix is
// singular.
func (t Transform) Inverse() (Transform, bool) {
	var inv mat.Dense
	if err := inv.Inverse(t.m); err != nil {
		return Transform{}, false
	}
	return Transform{m: &inv}, true
}

// TransformBox maps a box into another coordinate space by transforming
// its 8 corners individually and re-deriving an axis-aligned box from the
// transformed corner cloud. Transforming Min and Max directly would be
// incorrect under rotation.
func TransformBox(t Transform, b Box) Box {
	corners := b.Corners()
	pts := make([]Point, len(corners))
	for i, c := range corners {
		pts[i] = t.Apply(c)
	}
	return BoxFromPoints(pts)
}
