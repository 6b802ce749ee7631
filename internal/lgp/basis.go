package lgp

// Basis evaluates the Lagrange polynomials of one LGP degree on the reference
// right-angled triangle (0,0), (1,0), (0,1).
//
// The set of implementations is closed: LGP1 and LGP2.
type Basis interface {
	// Degree returns the polynomial degree N.
	Degree() int
	// WeightCount returns the number of degrees of freedom per triangle, 3N.
	WeightCount() int
	// Weights appends the basis weights at the reference coordinates (x, y)
	// to dst and returns the extended slice.
	Weights(x, y float64, dst []float64) []float64
	// VertexColumn returns the code column holding the degree of freedom
	// located on vertex v.
	VertexColumn(v int) int
	// Node returns the reference coordinates of the degree of freedom in
	// code column k.
	Node(k int) (x, y float64)

	invalidState() error
}

var (
	// LGP1 is the linear basis.
	LGP1 Basis = lgp1{}
	// LGP2 is the quadratic basis.
	LGP2 Basis = lgp2{}
)

// lgp1 nodes are the three vertices.
type lgp1 struct{}

func (lgp1) Degree() int      { return 1 }
func (lgp1) WeightCount() int { return 3 }

func (lgp1) Weights(x, y float64, dst []float64) []float64 {
	return append(dst, 1-x-y, x, y)
}

// Degree 1 has no midpoint columns, so vertex v is column v, not 2v.
func (lgp1) VertexColumn(v int) int { return v }

var lgp1Nodes = [3][2]float64{{0, 0}, {1, 0}, {0, 1}}

func (lgp1) Node(k int) (float64, float64) { return lgp1Nodes[k][0], lgp1Nodes[k][1] }

func (lgp1) invalidState() error { return ErrInvalidLGP1State }

// lgp2 nodes are ordered v0, mid(v0,v1), v1, mid(v1,v2), v2, mid(v2,v0), so
// vertex v sits in column 2v.
type lgp2 struct{}

func (lgp2) Degree() int      { return 2 }
func (lgp2) WeightCount() int { return 6 }

func (lgp2) Weights(x, y float64, dst []float64) []float64 {
	s := x + y
	return append(dst,
		2*(s-0.5)*(s-1), // 2x² + 2y² + 4xy - 3x - 3y + 1
		-4*x*(s-1),      // -4x² - 4xy + 4x
		2*x*(x-0.5),     // 2x² - x
		4*x*y,           // 4xy
		2*y*(y-0.5),     // 2y² - y
		-4*y*(s-1),      // -4y² - 4xy + 4y
	)
}

func (lgp2) VertexColumn(v int) int { return v << 1 }

var lgp2Nodes = [6][2]float64{{0, 0}, {0.5, 0}, {1, 0}, {0.5, 0.5}, {0, 1}, {0, 0.5}}

func (lgp2) Node(k int) (float64, float64) { return lgp2Nodes[k][0], lgp2Nodes[k][1] }

func (lgp2) invalidState() error { return ErrInvalidLGP2State }
