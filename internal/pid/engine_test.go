package pid_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidsim/internal/pid"
)

const tol = 1e-9

func trace(v pid.Variant, setpoint float64) []pid.Record {
	rec := pid.NewRecorder()
	pid.Run(setpoint, pid.NewPolicy(v), rec)
	return rec.Records
}

var _ = Describe("Simulate", func() {
	DescribeTable("keeps zero as a fixed point",
		func(v pid.Variant) {
			records := trace(v, 0)
			Expect(records).To(HaveLen(pid.Iterations))
			for _, r := range records {
				Expect(r.Error).To(BeZero())
				Expect(r.Output).To(BeZero())
				Expect(r.Actual).To(BeZero())
			}
		},
		Entry("positional", pid.VariantPositional),
		Entry("incremental", pid.VariantIncremental),
		Entry("separation", pid.VariantSeparation),
		Entry("antisaturation", pid.VariantAntiSaturation),
		Entry("antideadband", pid.VariantAntiDeadband),
	)

	DescribeTable("converges on the setpoint",
		func(v pid.Variant, setpoint float64) {
			Expect(pid.Run(setpoint, pid.NewPolicy(v))).To(BeNumerically("~", setpoint, 1e-3))
		},
		Entry("positional", pid.VariantPositional, 200.0),
		Entry("positional negative", pid.VariantPositional, -200.0),
		Entry("incremental", pid.VariantIncremental, 200.0),
		Entry("separation", pid.VariantSeparation, 200.0),
		Entry("antisaturation", pid.VariantAntiSaturation, 200.0),
		Entry("antideadband", pid.VariantAntiDeadband, 200.0),
	)

	It("is deterministic across runs", func() {
		for _, v := range pid.Variants() {
			Expect(trace(v, 200)).To(Equal(trace(v, 200)), v.String())
		}
	})

	It("numbers steps from one and reports the final actual", func() {
		rec := pid.NewRecorder()
		final := pid.Positional(200, rec)
		Expect(rec.Records[0].Step).To(Equal(1))
		Expect(rec.Records[pid.Iterations-1].Step).To(Equal(pid.Iterations))
		Expect(final).To(Equal(rec.Records[pid.Iterations-1].Actual))
	})

	It("applies the output to the plant with unit gain", func() {
		prev := 0.0
		for _, r := range trace(pid.VariantPositional, 75) {
			Expect(r.Actual).To(Equal(prev + r.Output))
			prev = r.Actual
		}
	})

	It("delivers every step to every observer", func() {
		a, b := pid.NewRecorder(), pid.NewRecorder()
		calls := 0
		counter := pid.ObserverFunc(func(v pid.Variant, _ pid.Record) {
			Expect(v).To(Equal(pid.VariantSeparation))
			calls++
		})
		pid.Separation(50, a, b, counter)
		Expect(a.Records).To(Equal(b.Records))
		Expect(calls).To(Equal(pid.Iterations))
	})
})

var _ = Describe("Positional", func() {
	It("matches the locked regression trace", func() {
		records := trace(pid.VariantPositional, 200)

		Expect(records[0].Error).To(BeNumerically("~", 200, tol))
		Expect(records[0].Output).To(BeNumerically("~", 83, tol))
		Expect(records[0].Actual).To(BeNumerically("~", 83, tol))

		Expect(records[1].Error).To(BeNumerically("~", 117, tol))
		Expect(records[1].Integral).To(BeNumerically("~", 317, tol))
		Expect(records[1].Output).To(BeNumerically("~", 11.555, tol))
		Expect(records[1].Actual).To(BeNumerically("~", 94.555, tol))
	})

	It("leaves the second lag unused", func() {
		for _, r := range trace(pid.VariantPositional, 200) {
			Expect(r.ErrorPrev2).To(BeZero())
		}
	})
})

var _ = Describe("Incremental", func() {
	It("shifts the second lag before the first", func() {
		records := trace(pid.VariantIncremental, 200)
		for k := 2; k < len(records); k++ {
			Expect(records[k].ErrorPrev2).To(Equal(records[k-1].Error))
			Expect(records[k].ErrorPrev1).To(Equal(records[k].Error))
		}
	})

	It("builds output from accumulated deltas", func() {
		out := 0.0
		for _, r := range trace(pid.VariantIncremental, 200) {
			out += r.Delta
			Expect(r.Output).To(Equal(out))
		}
	})

	It("tracks the positional trajectory", func() {
		inc := trace(pid.VariantIncremental, 200)
		pos := trace(pid.VariantPositional, 200)
		Expect(inc[0].Delta).To(BeNumerically("~", 83, tol))
		for k := range inc {
			Expect(inc[k].Output).To(BeNumerically("~", pos[k].Output, 1e-6))
		}
	})
})

var _ = Describe("Separation", func() {
	It("runs with its own gains and restores the nominal set", func() {
		p := pid.NewPolicy(pid.VariantSeparation)
		Expect(p.Gains()).To(Equal(pid.Gains{Kp: 0.18, Ki: 0.15, Kd: 0.2}))

		final := pid.Simulate(200, p)
		Expect(final.Gains).To(Equal(pid.Gains{Kp: 0.18, Ki: 0.015, Kd: 0.2}))
	})

	It("drops the integral term while the error is large", func() {
		records := trace(pid.VariantSeparation, 200)
		Expect(records[0].Gate).To(BeZero())
		Expect(records[0].Output).To(BeNumerically("~", 76, tol))
		Expect(records[1].Integral).To(BeNumerically("~", 324, tol))
		Expect(records[1].Output).To(BeNumerically("~", 7.12, tol))
	})

	It("keeps integrating while gated and applies it all when the gate reopens", func() {
		g := pid.SeparationGains
		records := trace(pid.VariantSeparation, 200)
		integral, prevErr := 0.0, 0.0
		reopened := false
		for k, r := range records {
			integral += r.Error
			Expect(r.Integral).To(BeNumerically("~", integral, 1e-6))

			if math.Abs(r.Error) > pid.MaxSeparation {
				Expect(r.Gate).To(BeZero())
			} else {
				Expect(r.Gate).To(Equal(1.0))
				if k > 0 && records[k-1].Gate == 0 {
					reopened = true
				}
			}
			want := g.Kp*r.Error + r.Gate*g.Ki*integral + g.Kd*(r.Error-prevErr)
			Expect(r.Output).To(BeNumerically("~", want, 1e-6))
			prevErr = r.Error
		}
		Expect(reopened).To(BeTrue())
	})
})

var _ = Describe("AntiSaturation", func() {
	It("freezes the integral on positive error while saturated", func() {
		records := trace(pid.VariantAntiSaturation, 200)
		Expect(records[0].Output).To(BeNumerically(">", pid.MaxAntiSaturation))
		Expect(records[1].Integral).To(Equal(records[0].Integral))
		Expect(records[1].Output).To(BeNumerically("~", 9.8, tol))

		frozen := 0
		for k := 1; k < len(records); k++ {
			if records[k-1].Output > pid.MaxAntiSaturation && records[k].Error >= 0 {
				Expect(records[k].Integral).To(Equal(records[k-1].Integral))
				frozen++
			}
		}
		Expect(frozen).To(BeNumerically(">", 0))
	})

	It("still integrates negative error while saturated", func() {
		s := &pid.State{Setpoint: 0, Actual: 10, OutputPrev: 50, Integral: 5, Gains: pid.DefaultGains}
		s.Error = s.Setpoint - s.Actual
		pid.NewPolicy(pid.VariantAntiSaturation).Update(s)
		Expect(s.Integral).To(Equal(-5.0))
		Expect(s.OutputPrev).To(Equal(s.Output))
	})
})

var _ = Describe("AntiDeadband", func() {
	It("forces near-zero output to zero", func() {
		s := &pid.State{Error: 1e-6, ErrorPrev1: 1e-6, Gains: pid.DefaultGains}
		c := pid.NewPolicy(pid.VariantAntiDeadband).Update(s)
		Expect(math.Abs(c.Raw)).To(BeNumerically("<=", pid.MinAntiDeadband))
		Expect(c.Raw).NotTo(BeZero())
		Expect(s.Output).To(BeZero())
	})

	It("holds the actual value on clamped steps", func() {
		records := trace(pid.VariantAntiDeadband, 200)
		clamped := 0
		for k := 1; k < len(records); k++ {
			if math.Abs(records[k].RawOutput) <= pid.MinAntiDeadband {
				Expect(records[k].Output).To(BeZero())
				Expect(records[k].Actual).To(Equal(records[k-1].Actual))
				clamped++
			} else {
				Expect(records[k].Output).To(Equal(records[k].RawOutput))
			}
		}
		Expect(clamped).To(BeNumerically(">", 0))
	})
})
