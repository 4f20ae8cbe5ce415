package kmain

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"includeos/kernel"
	"includeos/kernel/cpu"
	"includeos/kernel/irq"
	"includeos/kernel/kfmt"
	"includeos/kernel/mem"
	"includeos/kernel/mem/memmap"
	"includeos/kernel/plugin"
	"includeos/kernel/softreset"

	"github.com/fatih/color"
)

type mockPlatform struct {
	highMem    mem.Size
	imageStart uintptr
	imageEnd   uintptr
	heapBegin  uintptr
	resume     []byte
	stored     []byte
	storeFails bool

	calls  []string
	initFn func(*irq.Manager)
}

func newMockPlatform() *mockPlatform {
	return &mockPlatform{
		highMem:    512 * mem.Mb,
		imageStart: 0x200000,
		imageEnd:   0x3fffff,
		heapBegin:  0x800000,
	}
}

func (p *mockPlatform) record(call string) { p.calls = append(p.calls, call) }

func (p *mockPlatform) Multiboot(addr uint32) mem.Size {
	p.record(fmt.Sprintf("Multiboot(0x%x)", addr))
	return p.highMem
}

func (p *mockPlatform) LegacyBoot() mem.Size {
	p.record("LegacyBoot")
	return p.highMem
}

func (p *mockPlatform) ReadResume(addr uint32) []byte {
	p.record(fmt.Sprintf("ReadResume(0x%x)", addr))
	return p.resume
}

func (p *mockPlatform) StoreResume(rec []byte) (uint32, bool) {
	p.record("StoreResume")
	if p.storeFails {
		return 0, false
	}
	p.stored = append([]byte(nil), rec...)
	return 0x1000, true
}

func (p *mockPlatform) ImageBounds() (uintptr, uintptr) { return p.imageStart, p.imageEnd }

func (p *mockPlatform) HeapBegin() uintptr { return p.heapBegin }

func (p *mockPlatform) HeapUsage() mem.Size { return 4 * mem.Kb }

func (p *mockPlatform) Init(irqs *irq.Manager) {
	p.record("Init")
	if p.initFn != nil {
		p.initFn(irqs)
	}
}

func (p *mockPlatform) Entropy(buf []byte) error {
	for i := range buf {
		buf[i] = byte(i + 1)
	}
	return nil
}

func (p *mockPlatform) PowerOff() { p.record("PowerOff") }

type mockService struct {
	events  *[]string
	startFn func()
	starts  int
	stops   int
}

func (s *mockService) Name() string { return "mock_service" }

func (s *mockService) Start() {
	s.starts++
	*s.events = append(*s.events, "service.Start")
	if s.startFn != nil {
		s.startFn()
	}
}

func (s *mockService) Stop() {
	s.stops++
	*s.events = append(*s.events, "service.Stop")
}

// setup silences the console, mocks the panic hooks and returns a buffer with
// everything written to the console and the list of panics raised.
func setup(t *testing.T) (*bytes.Buffer, *[]*kernel.Error) {
	var (
		buf    bytes.Buffer
		panics []*kernel.Error
	)
	origFn, origSCF, origNC := panicFn, selfCheckPanicFn, color.NoColor

	record := func(e interface{}) {
		if err, ok := e.(*kernel.Error); ok {
			panics = append(panics, err)
			return
		}
		t.Errorf("unexpected panic value %v", e)
	}

	panicFn = record
	selfCheckPanicFn = record
	color.NoColor = true
	kfmt.SetOutputSink(&buf)

	t.Cleanup(func() {
		panicFn = origFn
		selfCheckPanicFn = origSCF
		color.NoColor = origNC
		kfmt.SetOutputSink(nil)
	})

	return &buf, &panics
}

func newTestKernel(p *mockPlatform, events *[]string, plugins ...plugin.Entry) (*Kernel, *mockService) {
	svc := &mockService{events: events}
	k := New(p, svc, Config{
		Layout:     DefaultLayout(),
		Plugins:    plugins,
		Cycles:     func() uint64 { return 1000 },
		CPUFreqMHz: 100,
	})
	return k, svc
}

func TestStartStageOrder(t *testing.T) {
	setup(t)

	var (
		events []string
		k      *Kernel
		svc    *mockService
	)
	p := newMockPlatform()

	k, svc = newTestKernel(p, &events, plugin.Entry{
		Name: "probe",
		Init: func() error {
			events = append(events, "plugin.probe")
			if !k.IsBooted() {
				t.Error("expected boot to be completed before plugins run")
			}
			return nil
		},
	})

	p.initFn = func(_ *irq.Manager) {
		events = append(events, "platform.Init")
		if k.Stats().Get(CounterCyclesHalted) == nil || k.Stats().Get(CounterCyclesTotal) == nil {
			t.Error("expected idle counters to exist before platform init")
		}
		if got := k.memmap.Len(); got != 5 {
			t.Errorf("expected memory map to be complete before platform init; got %d ranges", got)
		}
		if k.IsBooted() {
			t.Error("expected boot to be in progress during platform init")
		}
	}

	k.Start(0, 0)

	exp := []string{"platform.Init", "plugin.probe", "service.Start"}
	if !equalStrings(events, exp) {
		t.Fatalf("expected events %v; got %v", exp, events)
	}

	if !k.IsBooted() || !k.IsRunning() {
		t.Fatal("expected kernel to be booted and running")
	}

	if svc.starts != 1 {
		t.Fatalf("expected service to be started once; got %d", svc.starts)
	}

	if got := k.BootContext().Type; got != BootLegacy {
		t.Fatalf("expected legacy boot; got %s", got)
	}

	if k.Stats().Get(CounterIRQUnhandled) == nil {
		t.Fatal("expected unhandled IRQ counter to be registered")
	}

	if k.Rand() == nil {
		t.Fatal("expected pseudo-random generator to be seeded")
	}
}

func TestStartTwice(t *testing.T) {
	_, panics := setup(t)

	var events []string
	k, svc := newTestKernel(newMockPlatform(), &events)
	k.Start(0, 0)
	k.Start(0, 0)

	if len(*panics) != 1 || (*panics)[0] != errAlreadyStarted {
		t.Fatalf("expected a single errAlreadyStarted panic; got %v", *panics)
	}

	if svc.starts != 1 {
		t.Fatalf("expected service to be started once; got %d", svc.starts)
	}
}

func TestHaltBeforeCountersIsDetected(t *testing.T) {
	_, panics := setup(t)

	var events []string
	k, _ := newTestKernel(newMockPlatform(), &events)

	waits := 0
	k.waitForInterruptFn = func() { waits++ }

	// Run stages up to the heap computation and then force a halt.
	k.initDiagnostics()
	if err := k.detectBootType(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := k.assignMemoryRanges(); err != nil {
		t.Fatal(err)
	}
	k.Halt()

	if len(*panics) != 1 || (*panics)[0] != errHaltBeforeCounters {
		t.Fatalf("expected errHaltBeforeCounters; got %v", *panics)
	}

	if waits != 0 {
		t.Fatalf("expected halt not to wait for interrupts; waited %d times", waits)
	}

	if err := k.registerIdleCounters(); err != nil {
		t.Fatal(err)
	}
	k.Halt()

	if len(*panics) != 1 || waits != 1 {
		t.Fatalf("expected halt to succeed once counters exist; panics %v, waits %d", *panics, waits)
	}
}

func TestZeroHighMemoryIsFatal(t *testing.T) {
	_, panics := setup(t)

	var events []string
	p := newMockPlatform()
	p.highMem = 0
	k, svc := newTestKernel(p, &events)

	k.Start(0, 0)

	if len(*panics) != 1 || (*panics)[0] != errZeroHighMemory {
		t.Fatalf("expected errZeroHighMemory; got %v", *panics)
	}

	if !(*panics)[0].Fatal() {
		t.Fatal("expected error to be fatal")
	}

	if got := len(k.MemoryMap()); got != 0 {
		t.Fatalf("expected no memory ranges; got %d", got)
	}

	if svc.starts != 0 || k.IsBooted() {
		t.Fatal("expected boot to stop before the service starts")
	}
}

func TestMemoryRanges(t *testing.T) {
	setup(t)

	var events []string
	p := newMockPlatform()
	k, _ := newTestKernel(p, &events)
	k.Start(0, 0)

	ranges := k.MemoryMap()
	expCategories := []string{"Statman", "Stack", "ELF", "Pre-heap", "Heap"}
	if len(ranges) != len(expCategories) {
		t.Fatalf("expected %d ranges; got %d", len(expCategories), len(ranges))
	}

	for i, r := range ranges {
		if r.Category != expCategories[i] {
			t.Errorf("[range %d] expected category %q; got %q", i, expCategories[i], r.Category)
		}
		if r.Start > r.End {
			t.Errorf("[range %d] inverted range %s", i, r)
		}
		for j, other := range ranges[i+1:] {
			if r.Overlaps(other) {
				t.Errorf("[range %d] overlaps range %d", i, i+1+j)
			}
		}
	}

	if exp := uintptr(0x100000 + 512*mem.Mb); k.MemoryEnd() != exp {
		t.Errorf("expected memory end 0x%x; got 0x%x", exp, k.MemoryEnd())
	}

	expHeap := HeapBounds{Start: 0x800000, Max: 0x200fffff, RangeMax: 0x200fffff}
	if got := k.Heap(); got != expHeap {
		t.Errorf("expected heap bounds %+v; got %+v", expHeap, got)
	}

	gap := ranges[3]
	if gap.Start != p.imageEnd+1 || gap.End != p.heapBegin-1 {
		t.Errorf("expected pre-heap gap [0x%x, 0x%x]; got %s", p.imageEnd+1, p.heapBegin-1, gap)
	}

	if ranges[4].Usage == nil || ranges[4].Usage() != 4*mem.Kb {
		t.Error("expected heap range to report platform heap usage")
	}
}

func TestMemoryRangesWithoutPreHeapGap(t *testing.T) {
	setup(t)

	var events []string
	p := newMockPlatform()
	p.heapBegin = p.imageEnd + 1
	k, _ := newTestKernel(p, &events)
	k.Start(0, 0)

	if _, found := k.memmap.Find("Pre-heap"); found {
		t.Fatal("expected no pre-heap range when the heap starts right after the image")
	}

	if got := k.memmap.Len(); got != 4 {
		t.Fatalf("expected 4 ranges; got %d", got)
	}
}

func TestHeapRangeClamp(t *testing.T) {
	setup(t)

	defer func(orig uintptr) { maxSpan = orig }(maxSpan)
	maxSpan = 0x10000000

	var events []string
	k, _ := newTestKernel(newMockPlatform(), &events)
	k.Start(0, 0)

	heap, found := k.memmap.Find("Heap")
	if !found {
		t.Fatal("expected heap range to be registered")
	}

	if heap.End != maxSpan {
		t.Fatalf("expected heap range end to be clamped to 0x%x; got 0x%x", maxSpan, heap.End)
	}

	if k.HeapMax() != 0x200fffff {
		t.Fatalf("expected unclamped heap max 0x200fffff; got 0x%x", k.HeapMax())
	}
}

func TestMemoryRangeFailures(t *testing.T) {
	specs := []struct {
		descr    string
		mutate   func(*mockPlatform)
		expRange int
		check    func(*kernel.Error) bool
	}{
		{
			"zero heap start",
			func(p *mockPlatform) { p.heapBegin = 0 },
			3,
			func(err *kernel.Error) bool { return err == errZeroHeapBounds },
		},
		{
			"heap start above end of memory",
			func(p *mockPlatform) { p.highMem = 1 },
			4,
			memmap.IsInverted,
		},
		{
			"image overlaps stack",
			func(p *mockPlatform) { p.imageStart = 0x9000 },
			2,
			memmap.IsOverlap,
		},
		{
			"inverted image",
			func(p *mockPlatform) { p.imageStart, p.imageEnd = 0x400000, 0x200000 },
			2,
			memmap.IsInverted,
		},
	}

	for specIndex, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			_, panics := setup(t)

			var events []string
			p := newMockPlatform()
			spec.mutate(p)
			k, svc := newTestKernel(p, &events)
			k.Start(0, 0)

			if len(*panics) != 1 || !spec.check((*panics)[0]) {
				t.Fatalf("[spec %d] unexpected panics %v", specIndex, *panics)
			}

			if !(*panics)[0].Fatal() {
				t.Errorf("[spec %d] expected a fatal error", specIndex)
			}

			if got := k.memmap.Len(); got != spec.expRange {
				t.Errorf("[spec %d] expected %d ranges; got %d", specIndex, spec.expRange, got)
			}

			if svc.starts != 0 {
				t.Errorf("[spec %d] expected service not to start", specIndex)
			}
		})
	}
}

func TestBootTypeDetection(t *testing.T) {
	validRecord := make([]byte, softreset.RecordSize)
	rec := softreset.Record{HighMemorySize: 64 * mem.Mb, CPUFreqMHz: 2400, LiveUpdateLoc: 0xdead000}
	if err := rec.Encode(validRecord); err != nil {
		t.Fatal(err)
	}

	specs := []struct {
		magic, addr   uint32
		resume        []byte
		expType       BootType
		expCalls      []string
		expLiveUpdate uint64
		expFreq       uint64
	}{
		{MultibootMagic, 0x9500, nil, BootMultiboot, []string{"Multiboot(0x9500)"}, 0, 100},
		{0, 0, nil, BootLegacy, []string{"LegacyBoot"}, 0, 100},
		{softreset.BootMagic, 0, nil, BootLegacy, []string{"LegacyBoot"}, 0, 100},
		{softreset.BootMagic, 0x1000, validRecord, BootSoftReset, []string{"ReadResume(0x1000)", "LegacyBoot"}, 0xdead000, 2400},
		{softreset.BootMagic, 0x1000, make([]byte, softreset.RecordSize), BootSoftReset, []string{"ReadResume(0x1000)", "LegacyBoot"}, 0, 100},
	}

	for specIndex, spec := range specs {
		_, panics := setup(t)

		var events []string
		p := newMockPlatform()
		p.resume = spec.resume
		k, _ := newTestKernel(p, &events)
		k.Start(spec.magic, spec.addr)

		if len(*panics) != 0 {
			t.Errorf("[spec %d] unexpected panics %v", specIndex, *panics)
			continue
		}

		ctx := k.BootContext()
		if ctx.Type != spec.expType || ctx.Magic != spec.magic || ctx.Address != spec.addr {
			t.Errorf("[spec %d] unexpected boot context %+v", specIndex, ctx)
		}

		if ctx.HighMemorySize != p.highMem || k.HighMemorySize() != p.highMem {
			t.Errorf("[spec %d] expected high memory %s; got %s", specIndex, p.highMem, ctx.HighMemorySize)
		}

		probes := p.calls[:len(p.calls)-1]
		if !equalStrings(probes, spec.expCalls) {
			t.Errorf("[spec %d] expected platform calls %v; got %v", specIndex, spec.expCalls, probes)
		}

		if got := k.LiveUpdateLocation(); got != spec.expLiveUpdate {
			t.Errorf("[spec %d] expected live update location 0x%x; got 0x%x", specIndex, spec.expLiveUpdate, got)
		}

		if got := k.CPUFrequencyMHz(); got != spec.expFreq {
			t.Errorf("[spec %d] expected cpu frequency %d; got %d", specIndex, spec.expFreq, got)
		}
	}
}

func TestPluginIsolation(t *testing.T) {
	logBuf, _ := setup(t)

	var events []string
	calls := map[string]int{}

	mkPlugin := func(name string, fail bool) plugin.Entry {
		return plugin.Entry{
			Name: name,
			Init: func() error {
				calls[name]++
				events = append(events, "plugin."+name)
				if fail {
					return errors.New("device missing")
				}
				return nil
			},
		}
	}

	k, svc := newTestKernel(newMockPlatform(), &events,
		mkPlugin("alpha", false),
		mkPlugin("beta", true),
		mkPlugin("gamma", false),
		mkPlugin("delta", false),
	)
	k.Start(0, 0)

	exp := []string{"plugin.alpha", "plugin.beta", "plugin.gamma", "plugin.delta", "service.Start"}
	if !equalStrings(events, exp) {
		t.Fatalf("expected events %v; got %v", exp, events)
	}

	for name, n := range calls {
		if n != 1 {
			t.Errorf("expected plugin %q to run once; ran %d times", name, n)
		}
	}

	var failed []string
	for _, res := range k.PluginResults() {
		if res.Err != nil {
			failed = append(failed, res.Name)
		}
	}
	if !equalStrings(failed, []string{"beta"}) {
		t.Fatalf("expected only beta to fail; got %v", failed)
	}

	if got := strings.Count(logBuf.String(), "Failure when initializing plugin"); got != 1 {
		t.Fatalf("expected exactly one logged plugin failure; got %d", got)
	}

	if svc.starts != 1 {
		t.Fatal("expected service to start after a plugin failure")
	}
}

func TestBootReport(t *testing.T) {
	buf, _ := setup(t)

	var events []string
	k, _ := newTestKernel(newMockPlatform(), &events)
	k.Start(0, 0)

	out := buf.String()
	fields := []string{
		"IncludeOS " + Version,
		fmt.Sprintf("(%s / %d-bit)", cpu.Arch(), cpu.PointerWidth()),
		"Running [ mock_service ]",
	}
	for _, r := range k.MemoryMap() {
		fields = append(fields, r.String())
	}

	last := -1
	for _, field := range fields {
		idx := strings.Index(out, field)
		if idx == -1 {
			t.Fatalf("expected boot report to contain %q; got:\n%s", field, out)
		}
		if idx < last {
			t.Fatalf("expected %q to appear after the previous report field", field)
		}
		last = idx
	}
}

func TestEventLoop(t *testing.T) {
	for _, interrupts := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("%d interrupts", interrupts), func(t *testing.T) {
			setup(t)

			var events []string
			p := newMockPlatform()
			k, svc := newTestKernel(p, &events)
			k.Start(0, 0)
			events = events[:0]

			var processed, halts int
			k.processInterruptsFn = func() {
				processed++
				events = append(events, "process")
				if processed == interrupts {
					k.Shutdown()
				}
			}
			k.waitForInterruptFn = func() {
				halts++
				events = append(events, "halt")
				if k.State() != StateIdle {
					t.Errorf("expected idle state while halted; got %s", k.State())
				}
			}

			k.EventLoop()

			if processed != interrupts {
				t.Errorf("expected %d interrupt processing calls; got %d", interrupts, processed)
			}
			if halts != interrupts-1 {
				t.Errorf("expected %d halts; got %d", interrupts-1, halts)
			}

			for i := 0; i < len(events)-1; i++ {
				if events[i] == events[i+1] && events[i] != "service.Stop" {
					t.Errorf("expected interrupt processing and halts to interleave; got %v", events)
					break
				}
			}

			if svc.stops != 1 {
				t.Errorf("expected service to be stopped once; got %d", svc.stops)
			}
			if events[len(events)-1] != "service.Stop" {
				t.Errorf("expected service to stop after the loop; got %v", events)
			}
			if got := p.calls[len(p.calls)-1]; got != "PowerOff" {
				t.Errorf("expected platform to be powered off last; got %q", got)
			}
			if k.State() != StatePoweringDown {
				t.Errorf("expected powering-down state; got %s", k.State())
			}
		})
	}
}

func TestEventLoopWithInterruptManager(t *testing.T) {
	setup(t)

	var events []string
	p := newMockPlatform()
	k, svc := newTestKernel(p, &events)
	k.Start(0, 0)

	const timerTicks = 3
	ticks := 0
	k.IRQs().HandleIRQ(irq.TimerLine, func(irq.Line) {
		if ticks++; ticks < timerTicks {
			k.IRQs().Raise(irq.TimerLine)
			return
		}
		k.IRQs().Raise(irq.PowerButtonLine)
	})
	k.IRQs().HandleIRQ(irq.PowerButtonLine, func(irq.Line) { k.Shutdown() })
	k.IRQs().Raise(irq.TimerLine)

	k.EventLoop()

	if ticks != timerTicks {
		t.Fatalf("expected %d timer interrupts; got %d", timerTicks, ticks)
	}
	if svc.stops != 1 || k.IsRunning() {
		t.Fatal("expected the power button to stop the service")
	}
}

func TestHaltedCycles(t *testing.T) {
	setup(t)

	var events []string
	now := uint64(5000)

	svc := &mockService{events: &events}
	k := New(newMockPlatform(), svc, Config{
		Layout: DefaultLayout(),
		Cycles: func() uint64 { return now },
	})
	k.Start(0, 0)

	sleeps := []uint64{10, 0, 250, 3, 7000}
	busy := uint64(40)

	var (
		expHalted uint64
		last      uint64
	)
	for i, sleep := range sleeps {
		now += busy
		checkpoint := now
		k.waitForInterruptFn = func() { now += sleep }
		k.Halt()

		expHalted += sleep
		if got := k.CyclesHalted(); got != expHalted {
			t.Errorf("[halt %d] expected halted cycles %d; got %d", i, expHalted, got)
		}
		if k.CyclesHalted() < last {
			t.Errorf("[halt %d] halted cycles decreased", i)
		}
		if got := k.CyclesTotal(); got != checkpoint {
			t.Errorf("[halt %d] expected total cycles checkpoint %d; got %d", i, checkpoint, got)
		}
		last = k.CyclesHalted()
	}

	if got := *k.Stats().Get(CounterCyclesHalted).Uint64(); got != expHalted {
		t.Errorf("expected registry counter to hold %d; got %d", expHalted, got)
	}

	if got := k.CPUFrequencyMHz(); got != cpu.FrequencyMHz {
		t.Errorf("expected default cpu frequency %d; got %d", cpu.FrequencyMHz, got)
	}
}

func TestClockQueries(t *testing.T) {
	setup(t)

	var events []string
	now := uint64(1000)
	k := New(newMockPlatform(), &mockService{events: &events}, Config{
		Layout:     DefaultLayout(),
		Cycles:     func() uint64 { return now },
		CPUFreqMHz: 100,
	})
	k.Start(0, 0)

	now += 250000
	if got := k.MicrosSinceBoot(); got != 2500 {
		t.Fatalf("expected 2500us since boot; got %d", got)
	}

	if got := k.Uptime().Microseconds(); got != 2500 {
		t.Fatalf("expected 2500us uptime; got %d", got)
	}

	if k.BootTimestamp().IsZero() {
		t.Fatal("expected boot timestamp to be set")
	}
}

func TestSelfCheck(t *testing.T) {
	_, panics := setup(t)

	var events []string
	k, _ := newTestKernel(newMockPlatform(), &events)
	k.Start(0, 0)

	if len(*panics) != 0 {
		t.Fatalf("unexpected panics after a clean boot: %v", *panics)
	}

	if err := k.selfCheck(); err != nil {
		t.Fatalf("unexpected self-check error: %v", err)
	}

	k.booted = false
	if err := k.selfCheck(); err != errSelfCheckNotBooted {
		t.Fatalf("expected errSelfCheckNotBooted; got %v", err)
	}
	k.booted = true

	k.stats.Init(k.layout.DiagnosticsBase, k.layout.DiagnosticsSize)
	k.sanityChecks()
	if len(*panics) != 1 || (*panics)[0] != errSelfCheckNoCounters {
		t.Fatalf("expected errSelfCheckNoCounters; got %v", *panics)
	}
}

func TestPrepareSoftReset(t *testing.T) {
	setup(t)

	var events []string
	p := newMockPlatform()
	k, _ := newTestKernel(p, &events)
	k.Start(0, 0)
	k.SetLiveUpdateLocation(0xcafe000)

	addr, err := k.PrepareSoftReset()
	if err != nil {
		t.Fatal(err)
	}
	if addr != 0x1000 {
		t.Fatalf("expected resume address 0x1000; got 0x%x", addr)
	}

	rec, err := softreset.Decode(p.stored)
	if err != nil {
		t.Fatal(err)
	}

	exp := softreset.Record{HighMemorySize: p.highMem, CPUFreqMHz: 100, LiveUpdateLoc: 0xcafe000}
	if rec != exp {
		t.Fatalf("expected record %+v; got %+v", exp, rec)
	}

	// Boot a new kernel from the stored record.
	p2 := newMockPlatform()
	p2.resume = p.stored
	k2, _ := newTestKernel(p2, &events)
	k2.Start(softreset.BootMagic, addr)
	if k2.LiveUpdateLocation() != 0xcafe000 {
		t.Fatalf("expected live update location to survive the soft reset; got 0x%x", k2.LiveUpdateLocation())
	}

	p.storeFails = true
	if _, err := k.PrepareSoftReset(); err != errResumeStore {
		t.Fatalf("expected errResumeStore; got %v", err)
	}
}

func TestBootMemoryMap(t *testing.T) {
	setup(t)

	var events []string
	p := newMockPlatform()
	k, svc := newTestKernel(p, &events)

	if err := k.BootMemoryMap(0, 0); err != nil {
		t.Fatal(err)
	}

	if got := k.memmap.Len(); got != 5 {
		t.Fatalf("expected 5 ranges; got %d", got)
	}

	if svc.starts != 0 || k.IsBooted() {
		t.Fatal("expected memory map inspection not to boot the kernel")
	}

	for _, call := range p.calls {
		if call == "Init" {
			t.Fatal("expected platform devices not to be initialized")
		}
	}

	if err := k.BootMemoryMap(0, 0); err != errAlreadyStarted {
		t.Fatalf("expected errAlreadyStarted; got %v", err)
	}
}

func TestStringers(t *testing.T) {
	specs := []struct {
		in  fmt.Stringer
		exp string
	}{
		{BootLegacy, "legacy"},
		{BootMultiboot, "multiboot"},
		{BootSoftReset, "soft-reset"},
		{StateIdle, "idle"},
		{StateProcessingInterrupts, "processing-interrupts"},
		{StatePoweringDown, "powering-down"},
	}

	for specIndex, spec := range specs {
		if got := spec.in.String(); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
