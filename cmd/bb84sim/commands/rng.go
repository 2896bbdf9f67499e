package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alan-christopher/bb84sim/bb84/bitmap"
	"github.com/alan-christopher/bb84sim/bb84/qrng"
	"github.com/alan-christopher/bb84sim/bb84/random"
)

func rngCmd(g *globals) *cobra.Command {
	var (
		qubits    int
		digests   int
		bits      int
		seed      uint64
		extractor string
		out       string
	)
	cmd := &cobra.Command{
		Use:   "rng",
		Short: "Draw random numbers from a simulated qubit register",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if extractor != "none" && extractor != "toeplitz" {
				return fmt.Errorf("unknown extractor %q, want none or toeplitz", extractor)
			}
			if bits < 0 || digests < 0 {
				return fmt.Errorf("--bits and --digests must not be negative")
			}
			if !cmd.Flags().Changed("seed") {
				_, seed = random.NewTimeSeeded()
			}
			r := random.NewSeeded(seed)
			gen, err := qrng.New(qubits, r.Split())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i := 0; i < digests; i++ {
				fmt.Fprintf(w, "Random #%d: %s\n", i+1, gen.Digest())
			}
			if bits == 0 {
				return nil
			}

			var data bitmap.Dense
			if extractor == "toeplitz" {
				data, err = gen.Extract(2*bits, bits, r.Split())
				if err != nil {
					return err
				}
			} else {
				data = gen.Bits(bits)
			}
			ones := bitmap.CountOnes(data)
			fmt.Fprintf(w, "Bits: %d (%d qubit measurements)\n", data.Size(), gen.Measurements())
			fmt.Fprintf(w, "1s: %d (%.2f%%)\n", ones, 100*float64(ones)/float64(data.Size()))
			fmt.Fprintf(w, "0s: %d (%.2f%%)\n", data.Size()-ones, 100*float64(data.Size()-ones)/float64(data.Size()))
			if out != "" {
				if err := os.WriteFile(out, data.Data(), 0o644); err != nil {
					return err
				}
				g.logf("Wrote %d bytes to %s", data.SizeBytes(), out)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&qubits, "qubits", qrng.DefaultQubits, "size of the qubit register")
	f.IntVar(&digests, "digests", 5, "number of SHA3-512 digests to print")
	f.IntVar(&bits, "bits", 0, "number of raw bits to draw into a dataset")
	f.Uint64Var(&seed, "seed", 0, "seed of the random source (default time-seeded)")
	f.StringVar(&extractor, "extractor", "none", "post-processing of the dataset: none or toeplitz")
	f.StringVarP(&out, "out", "o", "", "file receiving the packed dataset bits")
	return cmd
}
