package linsolver

import "math"

// BiCGStab handles the nonsymmetric systems that upwinding and well
// terms produce.
type BiCGStab struct {
	MaxIterations int
	Tolerance     float64
}

func (BiCGStab) Name() string { return "bicgstab" }

func (s BiCGStab) Solve(sys System, pre Preconditioner) (out SolveOutcome, err error) {
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

	rhat := r.Copy()
	p := newWork(n)
	v := newWork(n)
	phat := newWork(n)
	shat := newWork(n)
	t := newWork(n)
	sv := newWork(n)

	rho, alpha, omega := 1.0, 1.0, 1.0
	for k := 0; k < s.MaxIterations; k++ {
		out.Iterations = k + 1
		rhoNext := rhat.Dot(r)
		if rhoNext == 0 || math.IsNaN(rhoNext) {
			break
		}
		if k == 0 {
			copy(p.Data(), r.Data())
		} else {
			beta := (rhoNext / rho) * (alpha / omega)
			// p = r + beta*(p - omega*v)
			p.AddScaled(-omega, v)
			p.Scale(beta)
			p.AddScaled(1, r)
		}
		rho = rhoNext

		pre.Apply(p, phat)
		sys.A.MulVec(phat, v)
		den := rhat.Dot(v)
		if den == 0 {
			break
		}
		alpha = rho / den

		// s = r - alpha*v
		copy(sv.Data(), r.Data())
		sv.AddScaled(-alpha, v)
		if sv.Norm2()/bnorm <= s.Tolerance {
			x.AddScaled(alpha, phat)
			out.Residual = sv.Norm2() / bnorm
			out.Converged = true
			break
		}

		pre.Apply(sv, shat)
		sys.A.MulVec(shat, t)
		tt := t.Dot(t)
		if tt == 0 {
			break
		}
		omega = t.Dot(sv) / tt

		x.AddScaled(alpha, phat)
		x.AddScaled(omega, shat)

		// r = s - omega*t
		copy(r.Data(), sv.Data())
		r.AddScaled(-omega, t)

		out.Residual = r.Norm2() / bnorm
		if out.Residual <= s.Tolerance {
			out.Converged = true
			break
		}
		if omega == 0 {
			break
		}
	}
	out.Solution = x
	return
}
