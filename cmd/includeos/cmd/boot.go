package cmd

import (
	"time"

	_ "includeos/device/serial"
	"includeos/kernel/config"
	"includeos/kernel/hal"
	"includeos/kernel/irq"
	"includeos/kernel/kmain"
	"includeos/kernel/plugin"

	"github.com/spf13/cobra"
)

var bootFlags struct {
	magic uint32
	addr  uint32
	tick  time.Duration
}

func init() {
	bootCmd.Flags().Uint32Var(&bootFlags.magic, "magic", kmain.MultibootMagic, "boot magic handed to the kernel")
	bootCmd.Flags().Uint32Var(&bootFlags.addr, "addr", 0, "boot address handed to the kernel")
	bootCmd.Flags().DurationVar(&bootFlags.tick, "tick", time.Second, "demo service timer interval")
	rootCmd.AddCommand(bootCmd)
}

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Boot the kernel with the demo service and run the event loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		svc := &demoService{tick: bootFlags.tick}
		k := kmain.New(newPlatform(cfg), svc, kmain.Config{
			Layout:  cfg.Layout,
			Plugins: plugin.Filter(plugin.List(), cfg.Plugins),
		})
		svc.kernel = k

		if kerr := k.IRQs().HandleIRQ(irq.PowerButtonLine, func(irq.Line) { k.Shutdown() }); kerr != nil {
			return kerr
		}

		k.Start(bootFlags.magic, bootFlags.addr)
		k.EventLoop()
		return nil
	},
}

func newPlatform(cfg config.Config) *hal.Hosted {
	h := hal.NewHosted()
	h.MemoryOverride = cfg.Memory
	h.PreHeapGap = cfg.PreHeapGap
	return h
}
