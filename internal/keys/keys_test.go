package keys

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"
)

func TestEncodeRoundTrip(t *testing.T) {
	g := NewWithT(t)

	seen := make(map[Key][4]int)
	for _, kind := range Kinds() {
		for id := 0; id <= 20; id++ {
			for other := 0; other <= 5; other++ {
				for ti := 0; ti <= 50; ti++ {
					k, err := Encode(kind, id, other, ti)
					g.Expect(err).NotTo(HaveOccurred())

					tuple := [4]int{int(kind), id, other, ti}
					prev, dup := seen[k]
					g.Expect(dup).To(BeFalse(), "collision between %v and %v", prev, tuple)
					seen[k] = tuple

					dk, did, dother, dt := k.Decode()
					g.Expect([4]int{int(dk), did, dother, dt}).To(Equal(tuple))
				}
			}
		}
	}
}

func TestEncodeBounds(t *testing.T) {
	g := NewWithT(t)

	k, err := Encode(Torque, MaxID, MaxID, MaxTime)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(k.ID()).To(Equal(MaxID))
	g.Expect(k.Other()).To(Equal(MaxID))
	g.Expect(k.Time()).To(Equal(MaxTime))
	g.Expect(k.Kind()).To(Equal(Torque))

	tests := []struct {
		name           string
		kind           Kind
		id, other, ti  int
		wantOutOfRange bool
	}{
		{"id overflow", Pose, MaxID + 1, 0, 0, true},
		{"negative id", Pose, -1, 0, 0, true},
		{"other overflow", Wrench, 0, MaxID + 1, 0, true},
		{"time overflow", JointAngle, 0, 0, MaxTime + 1, true},
		{"negative time", JointAngle, 0, 0, -1, true},
		{"unknown kind", Kind(0), 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.kind, tt.id, tt.other, tt.ti)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrKeyOutOfRange); got != tt.wantOutOfRange {
				t.Errorf("errors.Is(ErrKeyOutOfRange) = %v, err = %v", got, err)
			}
		})
	}
}

func TestNamedConstructorsPanicOutOfRange(t *testing.T) {
	g := NewWithT(t)
	g.Expect(func() { PoseKey(MaxID+1, 0) }).To(Panic())
	g.Expect(func() { JointAngleKey(0, -3) }).To(Panic())
}

func TestWrenchKeysDistinguishLinks(t *testing.T) {
	g := NewWithT(t)
	parent := WrenchKey(1, 3, 7)
	child := WrenchKey(2, 3, 7)
	g.Expect(parent).NotTo(Equal(child))
	g.Expect(parent.Other()).To(Equal(3))
	g.Expect(child.ID()).To(Equal(2))
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{PoseKey(1, 0), "p1_0"},
		{TwistKey(2, 5), "V2_5"},
		{TwistAccelKey(0, 3), "A0_3"},
		{WrenchKey(1, 2, 0), "F1_2_0"},
		{TorqueKey(4, 9), "T4_9"},
		{JointAngleKey(3, 7), "q3_7"},
		{JointVelKey(3, 7), "v3_7"},
		{JointAccelKey(3, 7), "a3_7"},
		{PhaseKey(2), "dt2"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestKindDim(t *testing.T) {
	g := NewWithT(t)
	g.Expect(Pose.Dim()).To(Equal(6))
	g.Expect(Wrench.Dim()).To(Equal(6))
	g.Expect(JointAngle.Dim()).To(Equal(1))
	g.Expect(PhaseDuration.Dim()).To(Equal(1))
}
