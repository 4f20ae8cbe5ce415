package cmd

import (
	"fmt"

	"includeos/kernel/kmain"

	"github.com/spf13/cobra"
)

var memmapFlags struct {
	magic uint32
	addr  uint32
}

func init() {
	memmapCmd.Flags().Uint32Var(&memmapFlags.magic, "magic", 0, "boot magic handed to the kernel")
	memmapCmd.Flags().Uint32Var(&memmapFlags.addr, "addr", 0, "boot address handed to the kernel")
	rootCmd.AddCommand(memmapCmd)
}

var memmapCmd = &cobra.Command{
	Use:   "memmap",
	Short: "Print the boot memory map without starting a service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		k := kmain.New(newPlatform(cfg), &demoService{}, kmain.Config{Layout: cfg.Layout})
		if kerr := k.BootMemoryMap(memmapFlags.magic, memmapFlags.addr); kerr != nil {
			return fmt.Errorf("boot memory map: %w", kerr)
		}

		out := cmd.OutOrStdout()
		for _, r := range k.MemoryMap() {
			fmt.Fprintf(out, "%s\n", r)
		}
		fmt.Fprintf(out, "memory end: 0x%x, heap max: 0x%x\n", k.MemoryEnd(), k.HeapMax())
		return nil
	},
}
