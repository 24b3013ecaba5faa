package analysis

import (
	"math"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/san-kum/dyngraph/internal/storage"
)

func TestDominantFrequency(t *testing.T) {
	g := NewWithT(t)
	const dt = 0.01
	data := make([]float64, 1000)
	for i := range data {
		data[i] = 0.3 + math.Sin(2*math.Pi*2*float64(i)*dt)
	}

	f, err := DominantFrequency(data, dt)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(f).To(BeNumerically("~", 2, 0.11))

	ps := PowerSpectrum(data)
	g.Expect(ps).To(HaveLen(501))
	g.Expect(ps[0]).To(BeNumerically("<", 1e-9))

	_, err = DominantFrequency(data[:3], dt)
	g.Expect(err).To(MatchError(ErrTooShort))
	_, err = DominantFrequency(data, 0)
	g.Expect(err).To(HaveOccurred())
}

func TestPhasePortrait(t *testing.T) {
	g := NewWithT(t)
	run := &storage.Run{Joints: []string{"joint1"}}
	for i := 0; i < 100; i++ {
		th := 2 * math.Pi * float64(i) / 100
		run.Times = append(run.Times, float64(i))
		run.Q = append(run.Q, []float64{math.Cos(th)})
		run.V = append(run.V, []float64{-math.Sin(th)})
	}

	p, err := NewPhasePortrait(run, 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(p.Joint).To(Equal("joint1"))

	art := p.ASCII(40, 20)
	lines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	g.Expect(lines).To(HaveLen(20))
	g.Expect(art).To(ContainSubstring("•"))
	g.Expect(art).To(ContainSubstring("│"))

	_, err = NewPhasePortrait(run, 3)
	g.Expect(err).To(HaveOccurred())
	_, err = NewPhasePortrait(&storage.Run{Joints: []string{"j"}}, 0)
	g.Expect(err).To(HaveOccurred())
}
