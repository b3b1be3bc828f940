package termstats

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/kailas-cloud/crawlscope/internal/domain/termvec"
)

// ReduceDimensions projects the rows of m onto their first k principal
// components. Inputs with fewer than 2 rows, fewer than k columns or no
// variance give an empty reduction.
func (r *Repo) ReduceDimensions(m termvec.Matrix, k int) (termvec.Reduction, error) {
	if k <= 0 {
		return termvec.Reduction{}, fmt.Errorf("target dimensions must be positive, got %d", k)
	}
	rows, cols := len(m.Rows), len(m.Vocabulary)
	if rows < 2 || cols < k || rows < k {
		return termvec.Reduction{}, nil
	}

	centered := mat.NewDense(rows, cols, nil)
	for i, row := range m.Rows {
		if len(row) != cols {
			return termvec.Reduction{}, fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
		centered.SetRow(i, row)
	}
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, centered)
		mean := stat.Mean(col, nil)
		for i := range col {
			centered.Set(i, j, col[i]-mean)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(centered, nil); !ok {
		return termvec.Reduction{}, fmt.Errorf("principal components did not converge")
	}

	vars := pc.VarsTo(nil)
	var total float64
	for _, v := range vars {
		total += v
	}
	if total == 0 || len(vars) < k {
		return termvec.Reduction{}, nil
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vr, vc := vecs.Dims()
	if vc < k {
		return termvec.Reduction{}, nil
	}

	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, vr, 0, k))

	out := termvec.Reduction{
		VarianceRatios: make([]float64, k),
		Coords:         make([][]float64, rows),
	}
	for i := 0; i < k; i++ {
		out.VarianceRatios[i] = vars[i] / total
	}
	for i := 0; i < rows; i++ {
		out.Coords[i] = mat.Row(nil, i, &proj)
	}
	return out, nil
}
