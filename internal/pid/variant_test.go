package pid_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidsim/internal/pid"
)

var _ = Describe("Variant", func() {
	DescribeTable("ParseVariant",
		func(name string, want pid.Variant) {
			v, err := pid.ParseVariant(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(want))
		},
		Entry("positional", "positional", pid.VariantPositional),
		Entry("mixed case", "Incremental", pid.VariantIncremental),
		Entry("dashed", "anti-saturation", pid.VariantAntiSaturation),
		Entry("underscored", "anti_deadband", pid.VariantAntiDeadband),
		Entry("legacy name", "antiAllergy", pid.VariantAntiDeadband),
	)

	It("rejects unknown names", func() {
		_, err := pid.ParseVariant("bangbang")
		Expect(err).To(MatchError(pid.ErrUnknownVariant))
	})

	It("has no policy for an undeclared variant", func() {
		v := pid.Variant(len(pid.Variants()))
		Expect(v.Valid()).To(BeFalse())
		Expect(pid.NewPolicy(v)).To(BeNil())
		Expect(pid.VariantAntiDeadband.Valid()).To(BeTrue())
	})

	It("round-trips every variant through its name", func() {
		Expect(pid.Variants()).To(HaveLen(5))
		for _, v := range pid.Variants() {
			parsed, err := pid.ParseVariant(v.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(v))
		}
	})
})

var _ = Describe("WithGains", func() {
	It("overrides run and nominal gains together", func() {
		g := pid.Gains{Kp: 0.3, Ki: 0.01, Kd: 0.1}
		p := pid.WithGains(pid.NewPolicy(pid.VariantPositional), g)
		Expect(p.Gains()).To(Equal(g))
		Expect(p.Nominal()).To(Equal(g))
		Expect(p.Variant()).To(Equal(pid.VariantPositional))
	})

	It("keeps the declared nominal set of the separation variant", func() {
		g := pid.Gains{Kp: 0.1, Ki: 0.1, Kd: 0.1}
		p := pid.WithGains(pid.NewPolicy(pid.VariantSeparation), g)
		Expect(p.Gains()).To(Equal(g))
		Expect(p.Nominal()).To(Equal(pid.SeparationNominalGains))
	})

	It("keeps the separation nominal set across chained overrides", func() {
		p := pid.WithGains(pid.NewPolicy(pid.VariantSeparation), pid.SeparationNominalGains)
		Expect(p.Nominal()).To(Equal(pid.SeparationNominalGains))

		g := pid.Gains{Kp: 0.3, Ki: 0.2, Kd: 0.1}
		p = pid.WithGains(p, g)
		Expect(p.Gains()).To(Equal(g))
		Expect(p.Nominal()).To(Equal(pid.SeparationNominalGains))
	})

	It("lets nominal gains follow chained overrides without a declared set", func() {
		a := pid.Gains{Kp: 0.3, Ki: 0.01, Kd: 0.1}
		b := pid.Gains{Kp: 0.25, Ki: 0.02, Kd: 0.15}
		p := pid.WithGains(pid.WithGains(pid.NewPolicy(pid.VariantAntiSaturation), a), b)
		Expect(p.Nominal()).To(Equal(b))
	})

	It("runs with the overridden gains", func() {
		rec := pid.NewRecorder()
		pid.Run(100, pid.WithGains(pid.NewPolicy(pid.VariantIncremental), pid.Gains{Kp: 0.5}), rec)
		Expect(rec.Records[0].Delta).To(BeNumerically("~", 50, tol))
	})
})

var _ = Describe("Series", func() {
	It("extracts one field per record in order", func() {
		rec := pid.NewRecorder()
		pid.Positional(200, rec)

		actual := pid.Series(rec.Records, func(r pid.Record) float64 { return r.Actual })
		Expect(actual).To(HaveLen(pid.Iterations))
		Expect(actual[0]).To(BeNumerically("~", 83, tol))
		Expect(actual[len(actual)-1]).To(Equal(rec.Records[len(rec.Records)-1].Actual))
	})

	It("returns an empty slice for no records", func() {
		Expect(pid.Series(nil, func(r pid.Record) float64 { return r.Error })).To(BeEmpty())
	})
})
