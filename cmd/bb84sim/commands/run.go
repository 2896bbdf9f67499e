package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alan-christopher/bb84sim/bb84"
	"github.com/alan-christopher/bb84sim/bb84/bitmap"
	"github.com/alan-christopher/bb84sim/bb84/random"
	"github.com/alan-christopher/bb84sim/internal/keyfile"
	"github.com/alan-christopher/bb84sim/internal/report"
	"github.com/alan-christopher/bb84sim/internal/store"
)

// Number of leading sifted bits shown in the narration.
const previewBits = 20

type runOpts struct {
	cfg    bb84.Config
	seed   uint64
	runs   int
	format string
	out    string
	seal   bool
}

func runCmd(g *globals) *cobra.Command {
	o := &runOpts{cfg: bb84.DefaultConfig()}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the BB84 protocol and write the resulting key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				_, o.seed = random.NewTimeSeeded()
			}
			return o.run(cmd, g)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&o.cfg.NumQubits, "qubits", "n", bb84.DefaultNumQubits, "qubits exchanged per run")
	f.IntVar(&o.cfg.SampleSize, "sample-size", bb84.DefaultSampleSize, "sifted bits sampled to estimate the QBER")
	f.Float64Var(&o.cfg.ErrorProbability, "error-prob", bb84.DefaultErrorProbability, "probability of a simulated channel error per sampled bit")
	f.IntVar(&o.cfg.ReconciliationOverhead, "overhead", bb84.DefaultReconciliationOverhead, "sifted bits spent on reconciliation")
	f.Uint64Var(&o.seed, "seed", 0, "seed of the first run; later runs use seed+1, seed+2, ... (default time-seeded)")
	f.IntVar(&o.runs, "runs", 1, "number of runs")
	f.StringVarP(&o.format, "format", "f", "text", "report format: text, json or proto")
	f.StringVarP(&o.out, "out", "o", "", "report file (default stdout)")
	f.BoolVar(&o.seal, "seal", false, "encrypt the report under a passphrase (read from $"+keyfile.PassphraseEnvVar+" or the terminal)")
	return cmd
}

func (o *runOpts) run(cmd *cobra.Command, g *globals) error {
	write, err := reportWriter(o.format)
	if err != nil {
		return err
	}
	if o.runs <= 0 {
		return fmt.Errorf("--runs must be positive, got %d", o.runs)
	}
	if err := o.cfg.Validate(); err != nil {
		return err
	}

	st, err := g.openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	// Narration goes wherever the report does not.
	narration := cmd.OutOrStdout()
	if o.out == "" {
		narration = cmd.ErrOrStderr()
	}

	var buf bytes.Buffer
	for i := 0; i < o.runs; i++ {
		r, err := o.runOnce(g, o.seed+uint64(i))
		if err != nil {
			return fmt.Errorf("run %d (seed %d): %w", i, r.Seed, err)
		}
		narrate(narration, r)
		if err := write(&buf, r); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		if st != nil {
			if err := st.SaveRun(cmd.Context(), o.record(r)); err != nil {
				return err
			}
			g.logf("Recorded run %s in %s", r.ID, g.db)
		}
	}

	data := buf.Bytes()
	if o.seal {
		pass, err := keyfile.Passphrase("Passphrase: ", true)
		if err != nil {
			return err
		}
		if data, err = keyfile.Seal(pass, data, keyfile.DefaultParams); err != nil {
			return fmt.Errorf("sealing report: %w", err)
		}
	}
	if o.out == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(o.out, data, 0o600); err != nil {
		return err
	}
	g.logf("Wrote %d bytes to %s", len(data), o.out)
	return nil
}

// runOnce steps a fresh Engine through every phase of the protocol.
func (o *runOpts) runOnce(g *globals, seed uint64) (report.Run, error) {
	cfg := o.cfg
	cfg.Rand = random.NewSeeded(seed)
	r := report.Run{ID: uuid.NewString(), Seed: seed, Config: cfg}
	e, err := bb84.NewEngine(cfg)
	if err != nil {
		return r, err
	}
	if err := e.Prepare(); err != nil {
		return r, err
	}
	g.logf("Prepared %d qubits", cfg.NumQubits)
	if err := e.Measure(); err != nil {
		return r, err
	}
	g.logf("Measured %d qubits", cfg.NumQubits)
	sifted, err := e.Sift()
	if err != nil {
		return r, err
	}
	g.logf("Sifted %d bits", sifted.Size())
	qber, err := e.Estimate()
	if err != nil {
		return r, err
	}
	g.logf("Estimated QBER %.4f", qber)
	if r.Result, err = e.Finalize(); err != nil {
		return r, err
	}
	r.Generated = time.Now()
	return r, nil
}

func (o *runOpts) record(r report.Run) *store.RunRecord {
	st := r.Result.Stats
	rec := &store.RunRecord{
		ID:                     r.ID,
		CreatedAt:              r.Generated,
		Seed:                   r.Seed,
		NumQubits:              r.Config.NumQubits,
		SampleSize:             r.Config.SampleSize,
		ErrorProbability:       r.Config.ErrorProbability,
		ReconciliationOverhead: r.Config.ReconciliationOverhead,
		RawBits:                st.RawBits,
		SiftedBits:             st.SiftedBits,
		QBER:                   st.QBER,
		KeyBits:                st.KeyBits,
	}
	if !o.seal {
		rec.Key = r.Result.Key.String()
	}
	return rec
}

func narrate(w io.Writer, r report.Run) {
	st := r.Result.Stats
	fmt.Fprintf(w, "Run %s (seed %d)\n", r.ID, r.Seed)
	fmt.Fprintf(w, "Raw key length: %d\n", st.RawBits)
	fmt.Fprintf(w, "Sifted key length: %d\n", st.SiftedBits)
	fmt.Fprintf(w, "Sifted key (first %d bits): %v\n", previewBits, bitmap.Prefix(r.Result.SiftedKey, previewBits))
	if st.SampledBits == 0 {
		fmt.Fprintln(w, "Not enough sifted bits for error estimation")
	}
	fmt.Fprintf(w, "QBER: %.2f%%\n", st.QBER*100)
	fmt.Fprintf(w, "Final key length: %d\n", st.KeyBits)
}

func reportWriter(format string) (func(*bytes.Buffer, report.Run) error, error) {
	switch format {
	case "text":
		return func(b *bytes.Buffer, r report.Run) error { return report.WriteText(b, r) }, nil
	case "json":
		return func(b *bytes.Buffer, r report.Run) error { return report.WriteJSON(b, r) }, nil
	case "proto":
		return func(b *bytes.Buffer, r report.Run) error { return report.WriteFrame(b, r) }, nil
	}
	return nil, fmt.Errorf("unknown format %q, want text, json or proto", format)
}
