// Command gbcore-debug is an interactive half-cycle stepper for the cpu
// package, wired against a flat mem.Bus. It exists purely to exercise the
// core's Step contract by hand; it has no knowledge of cartridge formats or
// the real Game Boy memory map, both of which are out of scope for this
// repository.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var offset uint16

	rootCmd := &cobra.Command{
		Use:   "gbcore-debug [file]",
		Short: "Step a gbcore CPU through a raw binary image, one half-cycle at a time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading program: %w", err)
			}
			log.Printf("gbcore-debug: loaded %d bytes from %s at offset %#04x", len(program), args[0], offset)
			return runDebugger(program, offset)
		},
	}
	rootCmd.Flags().Uint16Var(&offset, "offset", 0x0000, "address to load the image at and start PC from")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
