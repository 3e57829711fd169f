package linsolver

import "math"

// CG is preconditioned conjugate gradients for symmetric positive
// definite systems.
type CG struct {
	MaxIterations int
	Tolerance     float64 // relative residual target
}

func (CG) Name() string { return "cg" }

func (s CG) Solve(sys System, pre Preconditioner) (out SolveOutcome, err error) {
	n, err := sys.dim()
	if err != nil {
		return
	}
	if pre == nil {
		pre = Identity{}
	}
	out.Solver = s.Name()
	out.Preconditioner = pre.Name()

	x := sys.guess(n)
	r := sys.B.Copy()
	ax := newWork(n)
	sys.A.MulVec(x, ax)
	r.AddScaled(-1, ax)

	bnorm := sys.B.Norm2()
	if bnorm == 0 {
		x.Zero()
		out.Solution, out.Converged = x, true
		return
	}

	out.Residual = r.Norm2() / bnorm
	if out.Residual <= s.Tolerance {
		out.Solution, out.Converged = x, true
		return
	}

	z := newWork(n)
	pre.Apply(r, z)
	p := z.Copy()
	ap := newWork(n)

	rz := r.Dot(z)
	for k := 0; k < s.MaxIterations; k++ {
		out.Iterations = k + 1
		sys.A.MulVec(p, ap)
		pap := p.Dot(ap)
		if pap == 0 || math.IsNaN(pap) {
			break
		}
		alpha := rz / pap
		x.AddScaled(alpha, p)
		r.AddScaled(-alpha, ap)

		out.Residual = r.Norm2() / bnorm
		if out.Residual <= s.Tolerance {
			out.Converged = true
			break
		}

		pre.Apply(r, z)
		rzNext := r.Dot(z)
		beta := rzNext / rz
		rz = rzNext
		// p = z + beta*p
		p.Scale(beta)
		p.AddScaled(1, z)
	}
	out.Solution = x
	return
}
