package tracer

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ICache", func() {
	var ic *ICache

	BeforeEach(func() {
		ic = NewICache("4:1:64")
	})

	It("should be named I$", func() {
		Expect(ic.Cache().Name()).To(Equal("I$"))
	})

	It("should only care about fetches", func() {
		Expect(ic.InterestedInRange(0, 4, Fetch)).To(BeTrue())
		Expect(ic.InterestedInRange(0, 4, Load)).To(BeFalse())
		Expect(ic.InterestedInRange(0, 4, Store)).To(BeFalse())
	})

	It("should model fetches as reads", func() {
		ic.Trace(0x1000, 4, Fetch)
		ic.Trace(0x1000, 4, Load)

		stats := ic.Cache().Stats()
		Expect(stats.ReadAccesses).To(Equal(uint64(1)))
		Expect(stats.WriteAccesses).To(Equal(uint64(0)))
	})
})

var _ = Describe("DCache", func() {
	var dc *DCache

	BeforeEach(func() {
		dc = NewDCache("4:1:64")
	})

	It("should be named D$", func() {
		Expect(dc.Cache().Name()).To(Equal("D$"))
	})

	It("should care about loads and stores", func() {
		Expect(dc.InterestedInRange(0, 4, Fetch)).To(BeFalse())
		Expect(dc.InterestedInRange(0, 4, Load)).To(BeTrue())
		Expect(dc.InterestedInRange(0, 4, Store)).To(BeTrue())
	})

	It("should model stores as writes", func() {
		dc.Trace(0x2000, 8, Load)
		dc.Trace(0x2000, 8, Store)
		dc.Trace(0x2000, 8, Fetch)

		stats := dc.Cache().Stats()
		Expect(stats.ReadAccesses).To(Equal(uint64(1)))
		Expect(stats.WriteAccesses).To(Equal(uint64(1)))
	})
})

var _ = Describe("List", func() {
	It("should dispatch to interested tracers only", func() {
		ic := NewICache("4:1:64")
		dc := NewDCache("4:1:64")

		list := &List{}
		Expect(list.Empty()).To(BeTrue())
		list.Register(ic)
		list.Register(dc)
		Expect(list.Empty()).To(BeFalse())

		list.Hook(0x1000, 4, Fetch)
		list.Hook(0x2000, 8, Load)
		list.Hook(0x2008, 8, Store)

		Expect(ic.Cache().Stats().ReadAccesses).To(Equal(uint64(1)))
		Expect(dc.Cache().Stats().ReadAccesses).To(Equal(uint64(1)))
		Expect(dc.Cache().Stats().WriteAccesses).To(Equal(uint64(1)))
	})
})

var _ = Describe("AccessType", func() {
	It("should print its name", func() {
		Expect(Fetch.String()).To(Equal("fetch"))
		Expect(Load.String()).To(Equal("load"))
		Expect(Store.String()).To(Equal("store"))
		Expect(AccessType(42).String()).To(Equal("unknown"))
	})
})
