package dynamics

import (
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/values"
)

func jointVector(r *robot.Robot, v *values.Values, key func(j, t int) keys.Key, t int) ([]float64, error) {
	out := make([]float64, r.NumJoints())
	for _, j := range r.Joints() {
		x, err := v.Double(key(j.ID, t))
		if err != nil {
			return nil, err
		}
		out[j.ID] = x
	}
	return out, nil
}

// JointAngles reads every joint angle at step t, indexed by joint id.
func JointAngles(r *robot.Robot, v *values.Values, t int) ([]float64, error) {
	return jointVector(r, v, keys.JointAngleKey, t)
}

func JointVels(r *robot.Robot, v *values.Values, t int) ([]float64, error) {
	return jointVector(r, v, keys.JointVelKey, t)
}

func JointAccels(r *robot.Robot, v *values.Values, t int) ([]float64, error) {
	return jointVector(r, v, keys.JointAccelKey, t)
}

func JointTorques(r *robot.Robot, v *values.Values, t int) ([]float64, error) {
	return jointVector(r, v, keys.TorqueKey, t)
}

// ByName maps a joint-indexed vector to joint names.
func ByName(r *robot.Robot, x []float64) map[string]float64 {
	out := make(map[string]float64, len(x))
	for _, j := range r.Joints() {
		out[j.Name] = x[j.ID]
	}
	return out
}
