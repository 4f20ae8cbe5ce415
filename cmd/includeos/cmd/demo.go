package cmd

import (
	"time"

	"includeos/kernel/irq"
	"includeos/kernel/kfmt"
	"includeos/kernel/kmain"
	"includeos/kernel/plugin"

	"github.com/rs/zerolog"
)

func init() {
	plugin.Register("demo_greeter", func() error {
		kfmt.Logger("demo_greeter").Info().Msg("Hello from a boot plugin")
		return nil
	})
}

// demoService is the service bundled with the CLI. It drives the timer IRQ
// from a host ticker and reports idle statistics when it is stopped.
type demoService struct {
	kernel *kmain.Kernel
	tick   time.Duration

	ticker *time.Ticker
	done   chan struct{}
	ticks  uint64
	log    zerolog.Logger
}

func (s *demoService) Name() string { return "demo_service" }

func (s *demoService) Start() {
	s.log = kfmt.Logger("demo_service")
	s.log.Info().Msgf("Service started, timer every %s", s.tick)

	irqs := s.kernel.IRQs()
	if err := irqs.HandleIRQ(irq.TimerLine, s.onTimer); err != nil {
		s.log.Error().Msgf("cannot install timer handler: %s", err.Message)
		return
	}

	if s.tick <= 0 {
		return
	}

	s.ticker = time.NewTicker(s.tick)
	s.done = make(chan struct{})
	go func(ticker *time.Ticker, done <-chan struct{}) {
		for {
			select {
			case <-ticker.C:
				irqs.Raise(irq.TimerLine)
			case <-done:
				return
			}
		}
	}(s.ticker, s.done)
}

func (s *demoService) onTimer(irq.Line) {
	s.ticks++
	s.log.Debug().
		Uint64("tick", s.ticks).
		Dur("uptime", s.kernel.Uptime()).
		Msg("timer")
}

func (s *demoService) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.done)
	}

	s.log.Info().
		Uint64("ticks", s.ticks).
		Uint64("cycles_halted", s.kernel.CyclesHalted()).
		Uint64("cycles_total", s.kernel.CyclesTotal()).
		Dur("uptime", s.kernel.Uptime()).
		Msg("Service stopped")
}
