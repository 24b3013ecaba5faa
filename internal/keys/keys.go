package keys

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

type Kind uint8

const (
	Pose Kind = iota + 1
	Twist
	TwistAccel
	Wrench
	Torque
	JointAngle
	JointVel
	JointAccel
	PhaseDuration
)

const (
	kindBits  = 8
	idBits    = 16
	otherBits = 16
	timeBits  = 24

	timeShift  = 0
	otherShift = timeShift + timeBits
	idShift    = otherShift + otherBits
	kindShift  = idShift + idBits

	MaxID   = 1<<idBits - 1
	MaxTime = 1<<timeBits - 1
)

var symbols = map[Kind]string{
	Pose:          "p",
	Twist:         "V",
	TwistAccel:    "A",
	Wrench:        "F",
	Torque:        "T",
	JointAngle:    "q",
	JointVel:      "v",
	JointAccel:    "a",
	PhaseDuration: "dt",
}

func (k Kind) String() string {
	if s, ok := symbols[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := symbols[k]
	return ok
}

// Kinds lists every declared kind in encoding order.
func Kinds() []Kind {
	return []Kind{Pose, Twist, TwistAccel, Wrench, Torque, JointAngle, JointVel, JointAccel, PhaseDuration}
}

type Key uint64

// Encode packs a tuple into a Key, failing when any field overflows.
func Encode(kind Kind, id, other, t int) (Key, error) {
	if !kind.Valid() {
		return 0, errors.Wrapf(ErrUnknownKind, "kind %d", kind)
	}
	if id < 0 || id > MaxID {
		return 0, errors.Wrapf(ErrKeyOutOfRange, "%s id %d", kind, id)
	}
	if other < 0 || other > MaxID {
		return 0, errors.Wrapf(ErrKeyOutOfRange, "%s other id %d", kind, other)
	}
	if t < 0 || t > MaxTime {
		return 0, errors.Wrapf(ErrKeyOutOfRange, "%s time %d", kind, t)
	}
	return Key(uint64(kind)<<kindShift |
		uint64(id)<<idShift |
		uint64(other)<<otherShift |
		uint64(t)<<timeShift), nil
}

func mustEncode(kind Kind, id, other, t int) Key {
	k, err := Encode(kind, id, other, t)
	if err != nil {
		panic(err)
	}
	return k
}

func PoseKey(link, t int) Key        { return mustEncode(Pose, link, 0, t) }
func TwistKey(link, t int) Key       { return mustEncode(Twist, link, 0, t) }
func TwistAccelKey(link, t int) Key  { return mustEncode(TwistAccel, link, 0, t) }
func TorqueKey(joint, t int) Key     { return mustEncode(Torque, joint, 0, t) }
func JointAngleKey(joint, t int) Key { return mustEncode(JointAngle, joint, 0, t) }
func JointVelKey(joint, t int) Key   { return mustEncode(JointVel, joint, 0, t) }
func JointAccelKey(joint, t int) Key { return mustEncode(JointAccel, joint, 0, t) }
func PhaseKey(phase int) Key         { return mustEncode(PhaseDuration, phase, 0, 0) }

// WrenchKey identifies the wrench that joint applies on link at time t.
// Each joint owns two of these, one per incident link.
func WrenchKey(link, joint, t int) Key { return mustEncode(Wrench, link, joint, t) }

func (k Key) Kind() Kind { return Kind(k >> kindShift) }
func (k Key) ID() int    { return int(k>>idShift) & MaxID }
func (k Key) Other() int { return int(k>>otherShift) & MaxID }
func (k Key) Time() int  { return int(k>>timeShift) & MaxTime }

// Decode returns the tuple packed in k.
func (k Key) Decode() (kind Kind, id, other, t int) {
	return k.Kind(), k.ID(), k.Other(), k.Time()
}

// String renders keys as p1_0, F1_2_0 or dt3.
func (k Key) String() string {
	kind, id, other, t := k.Decode()
	switch kind {
	case Wrench:
		return fmt.Sprintf("%s%d_%d_%d", kind, id, other, t)
	case PhaseDuration:
		return fmt.Sprintf("%s%d", kind, id)
	default:
		return fmt.Sprintf("%s%d_%d", kind, id, t)
	}
}

// Dim is the tangent-space dimension of variables of this kind.
func (k Kind) Dim() int {
	switch k {
	case Pose, Twist, TwistAccel, Wrench:
		return 6
	default:
		return 1
	}
}
