package cache

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

func buildCache(name, config string) *Cache {
	cfg, err := ParseConfig(config)
	Expect(err).ToNot(HaveOccurred())

	return MakeBuilder().
		WithConfig(cfg).
		WithoutAtExitReport().
		Build(name)
}

var _ = Describe("Cache", func() {
	It("should count every access", func() {
		c := buildCache("L1D", "4:1:64")

		c.Access(0, 8, false)
		c.Access(0, 8, true)
		c.Access(0, 4, true)

		stats := c.Stats()
		Expect(stats.ReadAccesses).To(Equal(uint64(1)))
		Expect(stats.WriteAccesses).To(Equal(uint64(2)))
		Expect(stats.BytesRead).To(Equal(uint64(8)))
		Expect(stats.BytesWritten).To(Equal(uint64(12)))
	})

	It("should hit on a re-access", func() {
		c := buildCache("L1D", "4:1:64")

		c.Access(0x40, 8, false)
		c.Access(0x40, 8, false)

		Expect(c.Stats().ReadMisses).To(Equal(uint64(1)))
	})

	It("should miss on every line of a cold run", func() {
		c := buildCache("L1D", "4:1:64")

		for _, addr := range []uint64{0, 64, 128, 192, 256} {
			c.Access(addr, 8, false)
		}

		stats := c.Stats()
		Expect(stats.ReadMisses).To(Equal(uint64(5)))
		Expect(stats.Writebacks).To(Equal(uint64(0)))
	})

	It("should miss on every access of a conflict stream", func() {
		c := buildCache("L1D", "1:1:64")

		for i := 0; i < 10; i++ {
			c.Access(uint64(i%2)*64, 8, false)
		}

		Expect(c.Stats().ReadMisses).To(Equal(uint64(10)))
	})

	It("should thrash a two-way set deterministically", func() {
		// The LFSR starts at 1 and its first victim ways are all odd,
		// so way 1 takes every fill and nothing survives.
		c := buildCache("L1D", "1:2:64")

		for _, addr := range []uint64{0, 64, 128, 0, 64, 128} {
			c.Access(addr, 8, false)
		}

		stats := c.Stats()
		Expect(stats.ReadMisses).To(Equal(uint64(6)))
		Expect(stats.Writebacks).To(Equal(uint64(0)))
	})

	It("should write back a dirty victim only", func() {
		c := buildCache("L1D", "1:1:64")

		c.Access(0, 8, false)
		c.Access(64, 8, false)
		Expect(c.Stats().Writebacks).To(Equal(uint64(0)))

		c.Access(0, 8, true)
		c.Access(64, 8, false)
		Expect(c.Stats().Writebacks).To(Equal(uint64(1)))
	})

	Context("with a miss handler", func() {
		var (
			mockCtrl *gomock.Controller
			handler  *MockAccessor
			c        *Cache
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			handler = NewMockAccessor(mockCtrl)
			c = buildCache("L1D", "1:1:64")
			c.SetMissHandler(handler)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should cascade the writeback before the refill", func() {
			gomock.InOrder(
				handler.EXPECT().Access(uint64(0), uint64(64), false),
				handler.EXPECT().Access(uint64(0), uint64(64), true),
				handler.EXPECT().Access(uint64(64), uint64(64), false),
			)

			c.Access(0, 8, true)
			c.Access(64, 8, false)

			stats := c.Stats()
			Expect(stats.WriteMisses).To(Equal(uint64(1)))
			Expect(stats.ReadMisses).To(Equal(uint64(1)))
			Expect(stats.Writebacks).To(Equal(uint64(1)))
		})

		It("should align refills to the line size", func() {
			handler.EXPECT().Access(uint64(0x40), uint64(64), false)

			c.Access(0x7c, 4, false)
		})
	})

	Context("as a two-level hierarchy", func() {
		It("should forward every L1 miss as an L2 read", func() {
			l1 := buildCache("L1D", "1:1:64")
			l2 := buildCache("L2", "16:4:64")
			l1.SetMissHandler(l2)

			l1.Access(0, 8, true)
			l1.Access(64, 8, false)
			l1.Access(0, 8, false)

			l1Stats := l1.Stats()
			Expect(l1Stats.ReadMisses + l1Stats.WriteMisses).To(Equal(uint64(3)))
			Expect(l1Stats.Writebacks).To(Equal(uint64(1)))

			l2Stats := l2.Stats()
			Expect(l2Stats.ReadAccesses).To(Equal(uint64(3)))
			Expect(l2Stats.WriteAccesses).To(Equal(uint64(1)))
			Expect(l2Stats.ReadMisses).To(Equal(uint64(2)))
		})
	})

	Context("when logging misses", func() {
		It("should write one line per miss", func() {
			diag := &bytes.Buffer{}
			cfg, err := ParseConfig("4:1:64")
			Expect(err).ToNot(HaveOccurred())
			c := MakeBuilder().
				WithConfig(cfg).
				WithDiagOutput(diag).
				WithoutAtExitReport().
				Build("D$")
			c.SetLog(true)

			c.Access(0x1234, 8, false)
			c.Access(0x1234, 8, true)
			c.Access(0x1238, 8, true)

			Expect(diag.String()).To(Equal("D$ read miss 0x1234\n"))
		})
	})

	Context("when reporting statistics", func() {
		It("should print the fixed-format report", func() {
			out := &bytes.Buffer{}
			cfg, err := ParseConfig("1:1:64")
			Expect(err).ToNot(HaveOccurred())
			c := MakeBuilder().
				WithConfig(cfg).
				WithStatsOutput(out).
				WithoutAtExitReport().
				Build("L1D")

			c.Access(0, 8, false)
			c.Access(0, 8, false)
			c.ReportStats()

			Expect(out.String()).To(Equal(
				"L1D Bytes Read:            16\n" +
					"L1D Bytes Written:         0\n" +
					"L1D Read Accesses:         2\n" +
					"L1D Write Accesses:        0\n" +
					"L1D Read Misses:           1\n" +
					"L1D Write Misses:          0\n" +
					"L1D Writebacks:            0\n" +
					"L1D Miss Rate:             50.000%\n"))
		})

		It("should report at most once", func() {
			out := &bytes.Buffer{}
			cfg, err := ParseConfig("1:1:64")
			Expect(err).ToNot(HaveOccurred())
			c := MakeBuilder().
				WithConfig(cfg).
				WithStatsOutput(out).
				WithoutAtExitReport().
				Build("L1D")

			c.Access(0, 8, false)
			c.ReportStats()
			c.ReportStats()

			Expect(bytes.Count(out.Bytes(), []byte("Miss Rate"))).To(Equal(1))
		})

		It("should stay silent without accesses", func() {
			out := &bytes.Buffer{}
			cfg, err := ParseConfig("1:1:64")
			Expect(err).ToNot(HaveOccurred())
			c := MakeBuilder().
				WithConfig(cfg).
				WithStatsOutput(out).
				WithoutAtExitReport().
				Build("L1D")

			c.ReportStats()

			Expect(out.Len()).To(Equal(0))
		})
	})
})

var _ = Describe("Linear-evict policy", func() {
	It("should rotate the victim way per set", func() {
		cfg, err := ParseConfig("1:3:64:linear")
		Expect(err).ToNot(HaveOccurred())
		c := MakeBuilder().WithConfig(cfg).WithoutAtExitReport().Build("L1D")

		for _, addr := range []uint64{0, 64, 128, 192, 0} {
			c.Access(addr, 8, false)
		}

		// 192 filled way 0 over line 0; the re-access of 0 then
		// evicted way 1, so line 128 is still resident.
		Expect(c.Stats().ReadMisses).To(Equal(uint64(5)))
		Expect(c.Stats().Writebacks).To(Equal(uint64(0)))
		c.Access(128, 8, false)
		Expect(c.Stats().ReadMisses).To(Equal(uint64(5)))
	})
})

var _ = Describe("Fully-associative policy", func() {
	It("should only miss cold on a fitting working set", func() {
		c := buildCache("L1D", "1:8:64")

		for i := 0; i < 8; i++ {
			c.Access(uint64(i)*64, 8, false)
		}
		for i := 7; i >= 0; i-- {
			c.Access(uint64(i)*64, 8, false)
		}

		stats := c.Stats()
		Expect(stats.ReadAccesses).To(Equal(uint64(16)))
		Expect(stats.ReadMisses).To(Equal(uint64(8)))
	})

	It("should write back dirty victims", func() {
		c := buildCache("L1D", "1:8:64")

		for i := 0; i < 8; i++ {
			c.Access(uint64(i)*64, 8, true)
		}
		for i := 8; i < 16; i++ {
			c.Access(uint64(i)*64, 8, false)
		}

		// The LFSR walks the map in key order; the last round lands
		// on an already-refilled clean line, so one dirty line stays.
		stats := c.Stats()
		Expect(stats.WriteMisses).To(Equal(uint64(8)))
		Expect(stats.ReadMisses).To(Equal(uint64(8)))
		Expect(stats.Writebacks).To(Equal(uint64(7)))
	})
})
