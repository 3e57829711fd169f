package linsolver

import "github.com/gobores/gobores/utils"

// CachedFactory reuses an inner factory's product across solves. The
// factorization is rebuilt when it has been reused UpdateFrequency
// times or the matrix has drifted past RecomputeThreshold in relative
// Frobenius norm since the last build, whichever comes first.
type CachedFactory struct {
	Inner              Factory
	UpdateFrequency    int
	RecomputeThreshold float64

	current Preconditioner
	basis   utils.CSR
	reuses  int
}

func NewCachedFactory(inner Factory, updateFrequency int, recomputeThreshold float64) *CachedFactory {
	return &CachedFactory{
		Inner:              inner,
		UpdateFrequency:    updateFrequency,
		RecomputeThreshold: recomputeThreshold,
	}
}

func (c *CachedFactory) Build(A utils.CSR) (Preconditioner, error) {
	if c.current != nil && !c.stale(A) {
		c.reuses++
		return c.current, nil
	}
	pre, err := c.Inner.Build(A)
	if err != nil {
		return nil, err
	}
	c.current = pre
	c.basis = A
	c.reuses = 0
	return pre, nil
}

func (c *CachedFactory) stale(A utils.CSR) bool {
	if c.UpdateFrequency > 0 && c.reuses >= c.UpdateFrequency-1 {
		return true
	}
	if c.RecomputeThreshold > 0 && A.RelativeChange(c.basis) > c.RecomputeThreshold {
		return true
	}
	return false
}

// Invalidate drops the cached factorization, forcing a rebuild on the
// next Build call. Used after a rejected step changes the state the
// matrix was assembled from.
func (c *CachedFactory) Invalidate() {
	c.current = nil
	c.reuses = 0
}
