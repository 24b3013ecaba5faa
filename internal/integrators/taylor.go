package integrators

// Taylor is the default simulator update:
//
//	v1 = v0 + dt·a
//	q1 = q0 + dt·v0 + ½·dt²·a
//
// The angle update uses the start-of-step velocity, the position half of
// a velocity Verlet step with the acceleration held constant.
type Taylor struct{}

func NewTaylor() *Taylor {
	return &Taylor{}
}

func (t *Taylor) Name() string { return "taylor" }

func (t *Taylor) Integrate(q, v, a []float64, dt float64) ([]float64, []float64) {
	n := len(q)
	q1 := make([]float64, n)
	v1 := make([]float64, n)
	dt2 := dt * dt
	for i := 0; i < n; i++ {
		q1[i] = q[i] + v[i]*dt + 0.5*a[i]*dt2
		v1[i] = v[i] + a[i]*dt
	}
	return q1, v1
}
