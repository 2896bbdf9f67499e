package commands

import (
	"fmt"
	"io"
	"log"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"gonum.org/v1/gonum/stat"

	"github.com/alan-christopher/bb84sim/bb84"
	"github.com/alan-christopher/bb84sim/bb84/random"
)

var (
	benchInputs = []string{"qubits", "sample-size", "error-prob", "overhead", "seed"}
	// TODO: consider using reflection to pull this out of the Experiment data
	// type.
	benchColumns = []string{"Qubits", "SampleSize", "ErrorProb", "Overhead", "Seed",
		"SiftedBits", "SampledBits", "InjectedErrors", "QBER", "KeyBits",
		"SiftMismatches", "Succeeded"}
)

// An Experiment packages together the result of benchmarking a single
// parameterization for easy formatting.
type Experiment struct {
	// Fields corresponding to experiment parameters
	Qubits     int
	SampleSize int
	ErrorProb  float64
	Overhead   int
	Seed       int

	// Fields corresponding to experiment results
	SiftedBits     int
	SampledBits    int
	InjectedErrors int
	QBER           float64
	KeyBits        int
	SiftMismatches int
	Succeeded      bool
}

func benchCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the protocol over the cartesian product of parameter lists and print CSV",
		Long: `bench runs one BB84 exchange for each entry in the cartesian product of the
given parameter lists, e.g. qubit counts and error probabilities, and prints a
CSV line of statistics for each combination, e.g. sifted and final key length.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bench(cmd.OutOrStdout(), cmd.Flags(), g)
		},
	}
	f := cmd.Flags()
	f.IntSlice("qubits", []int{bb84.DefaultNumQubits}, "Qubits exchanged per run.")
	f.IntSlice("sample-size", []int{bb84.DefaultSampleSize}, "Sifted bits sampled for error estimation.")
	f.Float64Slice("error-prob", []float64{bb84.DefaultErrorProbability}, "Per-bit probability of a simulated channel error.")
	f.IntSlice("overhead", []int{bb84.DefaultReconciliationOverhead}, "Sifted bits spent on reconciliation.")
	f.IntSlice("seed", []int{42}, "Seeds of the random source.")
	return cmd
}

func bench(w io.Writer, fs *flag.FlagSet, g *globals) error {
	var args [][]interface{}
	for _, inp := range benchInputs {
		vals, err := lookupInput(fs, inp)
		if err != nil {
			return err
		}
		args = append(args, vals)
	}
	fmt.Fprintln(w, header())
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	var qbers, keyBits []float64
	var failed int
	var tmplErr error
	applyCartesian(func(args []interface{}) {
		exp := &Experiment{
			Qubits:     args[inpIndex("qubits")].(int),
			SampleSize: args[inpIndex("sample-size")].(int),
			ErrorProb:  args[inpIndex("error-prob")].(float64),
			Overhead:   args[inpIndex("overhead")].(int),
			Seed:       args[inpIndex("seed")].(int),
		}
		if err := runExperiment(exp); err != nil {
			log.Printf("Benching %+v: %v", *exp, err)
			failed++
		} else {
			qbers = append(qbers, exp.QBER)
			keyBits = append(keyBits, float64(exp.KeyBits))
		}
		if err := tmpl.Execute(w, exp); err != nil && tmplErr == nil {
			tmplErr = fmt.Errorf("BUG: could not fill in line template: %w", err)
		}
	}, args)
	if tmplErr != nil {
		return tmplErr
	}
	if len(qbers) > 0 {
		mq, sq := stat.MeanStdDev(qbers, nil)
		mk, sk := stat.MeanStdDev(keyBits, nil)
		g.logf("%d experiments, %d failed; QBER %.4f ± %.4f; key bits %.1f ± %.1f",
			len(qbers)+failed, failed, mq, sq, mk, sk)
	}
	return nil
}

func inpIndex(v string) int {
	for i, inp := range benchInputs {
		if inp == v {
			return i
		}
	}
	return -1
}

func runExperiment(exp *Experiment) error {
	cfg := bb84.Config{
		NumQubits:              exp.Qubits,
		SampleSize:             exp.SampleSize,
		ErrorProbability:       exp.ErrorProb,
		ReconciliationOverhead: exp.Overhead,
		Rand:                   random.NewSeeded(uint64(exp.Seed)),
	}
	res, err := bb84.Run(cfg)
	if err != nil {
		return err
	}
	st := res.Stats
	exp.SiftedBits = st.SiftedBits
	exp.SampledBits = st.SampledBits
	exp.InjectedErrors = st.InjectedErrors
	exp.QBER = st.QBER
	exp.KeyBits = st.KeyBits
	exp.SiftMismatches = st.SiftMismatches
	exp.Succeeded = true
	return nil
}

func header() string {
	return strings.Join(benchColumns, ", ")
}

func lineTmpl() string {
	var els []string
	for _, c := range benchColumns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}

func lookupInput(fs *flag.FlagSet, name string) ([]interface{}, error) {
	var r []interface{}
	if v, err := fs.GetIntSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := fs.GetFloat64Slice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else {
		return nil, fmt.Errorf("unknown type for input %s", name)
	}
	if len(r) == 0 {
		return nil, fmt.Errorf("input %s needs at least one value", name)
	}
	return r, nil
}

// applyCartesian calls f once for every combination that takes one value from
// each of args.
func applyCartesian(f func([]interface{}), args [][]interface{}) {
	for i := range args {
		if len(args[i]) == 1 {
			continue
		}
		l := make([][]interface{}, len(args))
		r := make([][]interface{}, len(args))
		copy(l, args)
		copy(r, args)
		l[i] = args[i][:1]
		r[i] = args[i][1:]
		applyCartesian(f, l)
		applyCartesian(f, r)
		return
	}
	x := make([]interface{}, 0, len(args))
	for _, a := range args {
		x = append(x, a[0])
	}
	f(x)
}
