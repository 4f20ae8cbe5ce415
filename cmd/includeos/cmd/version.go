package cmd

import (
	"fmt"

	"includeos/kernel/cpu"
	"includeos/kernel/kmain"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the kernel version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "IncludeOS %s (%s / %d-bit)\n", kmain.Version, cpu.Arch(), cpu.PointerWidth())
	},
}
