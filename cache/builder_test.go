package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseConfig", func() {
	It("should parse the three-field form", func() {
		cfg, err := ParseConfig("64:4:64")

		Expect(err).ToNot(HaveOccurred())
		Expect(cfg).To(Equal(Config{Sets: 64, Ways: 4, LineSize: 64}))
	})

	It("should parse the policy field", func() {
		cfg, err := ParseConfig("256:8:64:hawkeye")

		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.Policy).To(Equal(PolicyHawkeye))
	})

	DescribeTable("rejecting malformed configurations",
		func(config string) {
			_, err := ParseConfig(config)
			Expect(err).To(HaveOccurred())
		},
		Entry("too few fields", "64:4"),
		Entry("too many fields", "64:4:64:linear:extra"),
		Entry("non-numeric sets", "a:4:64"),
		Entry("negative ways", "64:-4:64"),
		Entry("sets not a power of two", "63:4:64"),
		Entry("zero sets", "0:4:64"),
		Entry("zero ways", "64:0:64"),
		Entry("line size below 8", "64:4:4"),
		Entry("line size not a power of two", "64:4:63"),
	)
})

var _ = Describe("Builder", func() {
	buildWith := func(config string) *Cache {
		cfg, err := ParseConfig(config)
		Expect(err).ToNot(HaveOccurred())
		return MakeBuilder().WithConfig(cfg).WithoutAtExitReport().Build("C$")
	}

	It("should default to random replacement", func() {
		c := buildWith("64:4:64")
		Expect(c.policy).To(BeAssignableToTypeOf(randomPolicy{}))
	})

	It("should pick fully-associative for wide single-set caches", func() {
		c := buildWith("1:8:64")
		Expect(c.policy).To(BeAssignableToTypeOf(&faPolicy{}))
	})

	It("should keep random replacement for narrow single-set caches", func() {
		c := buildWith("1:4:64")
		Expect(c.policy).To(BeAssignableToTypeOf(randomPolicy{}))
	})

	It("should select the linear policy by name", func() {
		c := buildWith("64:4:64:linear")
		Expect(c.policy).To(BeAssignableToTypeOf(&linearPolicy{}))
	})

	It("should select the Hawkeye policy by name", func() {
		c := buildWith("64:8:64:hawkeye")
		Expect(c.policy).To(BeAssignableToTypeOf(&hawkeyePolicy{}))
	})

	It("should ignore unknown policy names", func() {
		c := buildWith("64:4:64:bogus")
		Expect(c.policy).To(BeAssignableToTypeOf(randomPolicy{}))
	})

	It("should panic on invalid geometry", func() {
		Expect(func() {
			MakeBuilder().WithGeometry(3, 4, 64).Build("C$")
		}).To(Panic())
		Expect(func() {
			MakeBuilder().WithGeometry(4, 4, 4).Build("C$")
		}).To(Panic())
	})
})
