package kmain

import (
	"includeos/kernel/cpu"
	"includeos/kernel/kfmt"

	"github.com/fatih/color"
)

var (
	captionColor = color.New(color.FgCyan, color.Bold)
	serviceColor = color.New(color.FgGreen)
)

// printBootReport writes the boot banner followed by the memory map, one
// line per range in assignment order.
func (k *Kernel) printBootReport() {
	kfmt.FillLine('=')
	kfmt.Printf(" %s %s (%s / %d-bit)\n",
		captionColor.Sprint("IncludeOS"), Version, cpu.Arch(), cpu.PointerWidth())
	kfmt.Printf(" +--> Running [ %s ]\n", serviceColor.Sprint(k.service.Name()))
	kfmt.FillLine('~')

	k.PrintMemoryMap()
}

// PrintMemoryMap writes the memory map to the console.
func (k *Kernel) PrintMemoryMap() {
	kfmt.Printf(" %s\n", captionColor.Sprint("Memory map"))
	for _, r := range k.memmap.Ranges() {
		kfmt.Printf(" * %s\n", r)
	}
	kfmt.FillLine('~')
}
