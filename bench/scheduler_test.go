package bench

import (
	"errors"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/simplepipe/api"
	"github.com/sarchlab/simplepipe/device"
	"github.com/sarchlab/simplepipe/verify"
)

var errTest = errors.New("test failure")

type fakePipe struct{}

func (fakePipe) Name() string        { return "Pipe" }
func (fakePipe) PacketSize() int     { return 4 }
func (fakePipe) Capacity() int       { return 64 }
func (fakePipe) AcceptHook(sim.Hook) {}

type fakeBuffer struct {
	name  string
	words int
}

func (b *fakeBuffer) Name() string { return b.name }
func (b *fakeBuffer) Addr() uint64 { return 0 }
func (b *fakeBuffer) Words() int   { return b.words }

func newRuntime(computeUnits, slots int) api.Driver {
	engine := sim.NewSerialEngine()

	dev := device.NewBuilder().
		WithEngine(engine).
		WithComputeUnits(computeUnits).
		WithSlotsPerComputeUnit(slots).
		Build("Device")

	driver := api.DriverBuilder{}.
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		Build("Driver")
	driver.RegisterDevice(dev)

	return driver
}

func expectKind(err error, kind error, phase Phase, mode Mode) {
	Expect(err).To(MatchError(kind))

	var benchErr *Error
	Expect(errors.As(err, &benchErr)).To(BeTrue())
	Expect(benchErr.Phase).To(Equal(phase))
	Expect(benchErr.Mode).To(Equal(mode))
}

var _ = Describe("Scheduler on a device", func() {
	DescribeTable("should count the same matches in both modes",
		func(pipes int, flavor device.Flavor) {
			w := DefaultWorkload()
			w.NumPackets = 4096
			w.NumPipes = pipes
			w.Flavor = flavor

			s, err := NewScheduler(newRuntime(8, 4), w)
			Expect(err).NotTo(HaveOccurred())

			seq := s.Run(ModeSequential)
			conc := s.Run(ModeConcurrent)

			Expect(seq.Err).NotTo(HaveOccurred())
			Expect(conc.Err).NotTo(HaveOccurred())
			Expect(seq.Accumulator).To(Equal(conc.Accumulator))
			Expect(seq.Accumulator).To(Equal(verify.Count(s.Input(), 7)))
			Expect(seq.SimTime).To(BeNumerically(">", 0))
		},
		Entry("one pipe, work-group flavor", 1, device.FlavorWorkGroup),
		Entry("one pipe, work-item flavor", 1, device.FlavorWorkItem),
		Entry("four pipes, work-group flavor", 4, device.FlavorWorkGroup),
		Entry("four pipes, work-item flavor", 4, device.FlavorWorkItem),
	)

	It("should count the reference value over four pipes", func() {
		w := DefaultWorkload()
		w.NumPipes = 4

		s, err := NewScheduler(newRuntime(8, 4), w)
		Expect(err).NotTo(HaveOccurred())

		expected := verify.Count(GenerateInput(16384, w.Seed), 7)

		for _, mode := range Modes {
			res := s.Run(mode)
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.Accumulator).To(Equal(expected))
			Expect(res.Expected).To(Equal(expected))
		}
	})

	It("should give the remainder to the first pipe", func() {
		w := DefaultWorkload()
		w.NumPackets = 16385
		w.NumPipes = 4

		s, err := NewScheduler(newRuntime(8, 4), w)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Plans()[0].Items).To(Equal(4097))

		for _, mode := range Modes {
			res := s.Run(mode)
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.Accumulator).To(Equal(verify.Count(s.Input(), 7)))
		}
	})

	It("should match a single pipe with four pipes", func() {
		single := DefaultWorkload()
		single.NumPackets = 2048
		multi := single
		multi.NumPipes = 4

		s1, err := NewScheduler(newRuntime(8, 4), single)
		Expect(err).NotTo(HaveOccurred())
		s4, err := NewScheduler(newRuntime(8, 4), multi)
		Expect(err).NotTo(HaveOccurred())

		Expect(s1.Run(ModeConcurrent).Accumulator).
			To(Equal(s4.Run(ModeConcurrent).Accumulator))
	})

	It("should give the same result on every iteration", func() {
		w := DefaultWorkload()
		w.NumPackets = 2048
		w.NumPipes = 4
		w.Iterations = 3

		s, err := NewScheduler(newRuntime(8, 4), w)
		Expect(err).NotTo(HaveOccurred())

		res := s.RunIterations(ModeConcurrent)

		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.ExecSamples).To(HaveLen(3))
		Expect(res.Accumulator).To(Equal(res.Expected))
	})

	It("should stream through pipes smaller than a channel", func() {
		w := DefaultWorkload()
		w.NumPackets = 4096
		w.NumPipes = 4
		w.PipeCapacity = 128

		s, err := NewScheduler(newRuntime(8, 4), w)
		Expect(err).NotTo(HaveOccurred())

		res := s.Run(ModeConcurrent)
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Accumulator).To(Equal(res.Expected))

		res = s.Run(ModeSequential)
		expectKind(res.Err, ErrConfiguration, PhaseSetup, ModeSequential)
	})

	It("should limit the streams to the work-group slots", func() {
		w := DefaultWorkload()
		w.NumPackets = 4096
		w.NumPipes = 4

		s, err := NewScheduler(newRuntime(2, 10), w)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Streams()).To(Equal(1))

		res := s.Run(ModeConcurrent)
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Accumulator).To(Equal(res.Expected))
	})

	It("should refuse concurrent mode when a pair does not fit", func() {
		w := DefaultWorkload()
		w.NumPackets = 4096

		s, err := NewScheduler(newRuntime(1, 4), w)
		Expect(err).NotTo(HaveOccurred())

		res := s.Run(ModeConcurrent)
		expectKind(res.Err, ErrConfiguration, PhaseSetup, ModeConcurrent)
	})
})

var _ = Describe("Scheduler", func() {
	var (
		mockCtrl *gomock.Controller
		rt       *MockRuntime
		w        Workload
		pipes    []device.PipeHandle
		src      *fakeBuffer
		acc      *fakeBuffer
		clock    func() float64
	)

	BeforeEach(func() {
		clock = func() float64 { return 0 }

		mockCtrl = gomock.NewController(GinkgoT())
		rt = NewMockRuntime(mockCtrl)

		rt.EXPECT().DeviceInfo().Return(device.Info{
			ComputeUnits:        1,
			SlotsPerComputeUnit: 4,
			MaxWorkGroupSize:    64,
			MaxAlignmentBits:    1024,
		}).AnyTimes()
		rt.EXPECT().Now().DoAndReturn(func() float64 { return clock() }).
			AnyTimes()
		rt.EXPECT().NewQueue(gomock.Any()).Return(api.QueueID(0)).AnyTimes()

		w = DefaultWorkload()
		w.NumPackets = 64
		w.GroupSize = 8
		w.GroupsPerKernel = 2

		pipes = []device.PipeHandle{fakePipe{}}
		src = &fakeBuffer{name: "Input", words: 64}
		acc = &fakeBuffer{name: "Accumulator", words: 1}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	expectSetup := func() {
		rt.EXPECT().CreatePipes(1, 4, 64).Return(pipes, nil)
		rt.EXPECT().AllocBuffer("Input", 64).Return(src, nil)
		rt.EXPECT().AllocBuffer("Accumulator", 1).Return(acc, nil)
		rt.EXPECT().EnqueueWrite(api.QueueID(0), src, gomock.Any())
		rt.EXPECT().EnqueueFill(api.QueueID(0), acc, uint32(0))
	}

	expectRelease := func(err error) {
		rt.EXPECT().ReleasePipes(pipes).Return(err)
		rt.EXPECT().FreeBuffer(src).Return(nil)
		rt.EXPECT().FreeBuffer(acc).Return(nil)
	}

	expectRead := func(value func(s *Scheduler) uint32, s **Scheduler) {
		rt.EXPECT().EnqueueRead(api.QueueID(0), acc, gomock.Any()).
			Do(func(_ api.QueueID, _ device.BufferHandle, dst []uint32) {
				dst[0] = value(*s)
			})
	}

	It("should reject a packet larger than the device alignment", func() {
		w.PacketSize = 256

		s, err := NewScheduler(rt, w)

		Expect(s).To(BeNil())
		expectKind(err, ErrConfiguration, PhaseSetup, ModeNone)
	})

	It("should reject a work-group larger than the device allows", func() {
		w.GroupSize = 128

		_, err := NewScheduler(rt, w)

		Expect(err).To(MatchError(ErrConfiguration))
	})

	It("should refuse a mode without touching the device", func() {
		w.PipeCapacity = 16

		s, err := NewScheduler(rt, w)
		Expect(err).NotTo(HaveOccurred())

		expectKind(s.Check(ModeSequential),
			ErrConfiguration, PhaseSetup, ModeSequential)
		Expect(s.Check(ModeConcurrent)).To(Succeed())

		res := s.Run(ModeSequential)

		expectKind(res.Err, ErrConfiguration, PhaseSetup, ModeSequential)
	})

	It("should average setup and simulated time over iterations", func() {
		w.Iterations = 3

		s, err := NewScheduler(rt, w)
		Expect(err).NotTo(HaveOccurred())

		ticks := []float64{0, 1, 10, 12, 20, 23}
		clock = func() float64 {
			t := ticks[0]
			ticks = ticks[1:]

			return t
		}

		rt.EXPECT().CreatePipes(1, 4, 64).Return(pipes, nil).Times(3)
		rt.EXPECT().AllocBuffer("Input", 64).Return(src, nil).Times(3)
		rt.EXPECT().AllocBuffer("Accumulator", 1).Return(acc, nil).Times(3)
		rt.EXPECT().EnqueueWrite(api.QueueID(0), src, gomock.Any()).Times(3)
		rt.EXPECT().EnqueueFill(api.QueueID(0), acc, uint32(0)).Times(3)
		rt.EXPECT().EnqueueKernel(api.QueueID(0), gomock.Any()).
			Return(nil).Times(6)
		rt.EXPECT().Finish().Return(nil).Times(9)
		rt.EXPECT().EnqueueRead(api.QueueID(0), acc, gomock.Any()).
			Do(func(_ api.QueueID, _ device.BufferHandle, dst []uint32) {
				dst[0] = verify.Count(s.Input(), 7)
			}).Times(3)
		rt.EXPECT().ReleasePipes(pipes).Return(nil).Times(3)
		rt.EXPECT().FreeBuffer(src).Return(nil).Times(3)
		rt.EXPECT().FreeBuffer(acc).Return(nil).Times(3)

		res := s.RunIterations(ModeConcurrent)

		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.ExecSamples).To(HaveLen(3))
		Expect(res.SimTime).To(BeNumerically("~", 2.0, 1e-9))
		Expect(ticks).To(BeEmpty())
	})

	It("should run producer then consumer in sequential mode", func() {
		s, err := NewScheduler(rt, w)
		Expect(err).NotTo(HaveOccurred())

		expectSetup()
		gomock.InOrder(
			rt.EXPECT().Finish().Return(nil),
			rt.EXPECT().EnqueueKernel(api.QueueID(0), gomock.Any()).
				Do(func(_ api.QueueID, l device.Launch) {
					Expect(l.Role).To(Equal(device.RoleProducer))
					Expect(l.Buffer).To(BeIdenticalTo(src))
					Expect(l.Items()).To(Equal(64))
				}).Return(nil),
			rt.EXPECT().Finish().Return(nil),
			rt.EXPECT().EnqueueKernel(api.QueueID(0), gomock.Any()).
				Do(func(_ api.QueueID, l device.Launch) {
					Expect(l.Role).To(Equal(device.RoleConsumer))
					Expect(l.Buffer).To(BeIdenticalTo(acc))
					Expect(l.Reference).To(Equal(uint32(7)))
				}).Return(nil),
			rt.EXPECT().Finish().Return(nil),
			rt.EXPECT().Finish().Return(nil),
		)
		expectRead(func(s *Scheduler) uint32 {
			return verify.Count(s.Input(), 7)
		}, &s)
		expectRelease(nil)

		res := s.Run(ModeSequential)

		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Accumulator).To(Equal(res.Expected))
	})

	It("should report a pipe allocation failure as a resource error", func() {
		s, _ := NewScheduler(rt, w)

		rt.EXPECT().CreatePipes(1, 4, 64).Return(nil, device.ErrOutOfMemory)

		res := s.Run(ModeConcurrent)

		expectKind(res.Err, ErrResource, PhaseSetup, ModeConcurrent)
		Expect(res.Err).To(MatchError(device.ErrOutOfMemory))
	})

	It("should release the pipes if a buffer cannot be allocated", func() {
		s, _ := NewScheduler(rt, w)

		rt.EXPECT().CreatePipes(1, 4, 64).Return(pipes, nil)
		rt.EXPECT().AllocBuffer("Input", 64).Return(src, nil)
		rt.EXPECT().AllocBuffer("Accumulator", 1).
			Return(nil, device.ErrOutOfMemory)
		rt.EXPECT().ReleasePipes(pipes).Return(nil)
		rt.EXPECT().FreeBuffer(src).Return(nil)

		res := s.Run(ModeSequential)

		expectKind(res.Err, ErrResource, PhaseSetup, ModeSequential)
	})

	It("should report a staging failure", func() {
		s, _ := NewScheduler(rt, w)

		expectSetup()
		rt.EXPECT().Finish().Return(errTest)
		expectRelease(nil)

		res := s.Run(ModeSequential)

		expectKind(res.Err, ErrExecution, PhaseStaging, ModeSequential)
	})

	It("should report a kernel fault as an execution error", func() {
		s, _ := NewScheduler(rt, w)

		expectSetup()
		rt.EXPECT().EnqueueKernel(api.QueueID(0), gomock.Any()).
			Return(nil).Times(2)
		gomock.InOrder(
			rt.EXPECT().Finish().Return(nil),
			rt.EXPECT().Finish().Return(device.ErrPipeDrained),
		)
		expectRelease(nil)

		res := s.Run(ModeConcurrent)

		expectKind(res.Err, ErrExecution, PhaseExecution, ModeConcurrent)
		Expect(res.Err).To(MatchError(device.ErrPipeDrained))
	})

	It("should report a wrong count as a verification error", func() {
		s, _ := NewScheduler(rt, w)

		expectSetup()
		rt.EXPECT().EnqueueKernel(api.QueueID(0), gomock.Any()).
			Return(nil).Times(2)
		rt.EXPECT().Finish().Return(nil).Times(3)
		expectRead(func(s *Scheduler) uint32 {
			return verify.Count(s.Input(), 7) + 1
		}, &s)
		expectRelease(nil)

		res := s.Run(ModeConcurrent)

		expectKind(res.Err, ErrVerification, PhaseRetrieval, ModeConcurrent)

		var mismatch *verify.MismatchError
		Expect(errors.As(res.Err, &mismatch)).To(BeTrue())
		Expect(mismatch.Actual).To(Equal(mismatch.Expected + 1))
	})

	It("should report a pipe left with packets", func() {
		s, _ := NewScheduler(rt, w)

		expectSetup()
		rt.EXPECT().EnqueueKernel(api.QueueID(0), gomock.Any()).
			Return(nil).Times(2)
		rt.EXPECT().Finish().Return(nil).Times(3)
		expectRead(func(s *Scheduler) uint32 {
			return verify.Count(s.Input(), 7)
		}, &s)
		expectRelease(device.ErrPipeNotDrained)

		res := s.Run(ModeConcurrent)

		expectKind(res.Err, ErrExecution, PhaseRetrieval, ModeConcurrent)
		Expect(res.Err).To(MatchError(device.ErrPipeNotDrained))
	})
})

var _ = Describe("Scheduler validation", func() {
	It("should reject a pipe smaller than a work-group reservation", func() {
		w := DefaultWorkload()
		w.NumPackets = 4096
		w.PipeCapacity = 32

		_, err := NewScheduler(newRuntime(8, 4), w)
		Expect(err).To(MatchError(ErrConfiguration))

		w.Flavor = device.FlavorWorkItem
		s, err := NewScheduler(newRuntime(8, 4), w)
		Expect(err).NotTo(HaveOccurred())

		res := s.Run(ModeConcurrent)
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Accumulator).To(Equal(res.Expected))
	})
})
