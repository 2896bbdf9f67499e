// Package report renders BB84 runs for people and for other programs: the
// plain text key file, JSON, and length-framed protocol buffers.
package report

import (
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/alan-christopher/bb84sim/bb84"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// A Run packages together one completed simulation and the parameters needed
// to reproduce it.
type Run struct {
	ID        string
	Seed      uint64
	Generated time.Time
	Config    bb84.Config
	Result    bb84.Result
}

const keyFileTmpl = `BB84 Quantum Secure Key
==============================
Key: {{.Result.Key}}
Length: {{.Result.Key.Size}} bits
Generated: {{.Generated.Format "Mon Jan _2 15:04:05 2006"}}
`

var keyFile = template.Must(template.New("keyfile").Parse(keyFileTmpl))

// WriteText writes r in the plain text key file format.
func WriteText(w io.Writer, r Run) error {
	return keyFile.Execute(w, r)
}

// ToStruct converts r into a protobuf Struct. The seed is rendered as a decimal
// string since it may not fit in a JSON number.
func ToStruct(r Run) (*structpb.Struct, error) {
	st := r.Result.Stats
	return structpb.NewStruct(map[string]interface{}{
		"id":        r.ID,
		"seed":      fmt.Sprint(r.Seed),
		"generated": r.Generated.UTC().Format(time.RFC3339),
		"config": map[string]interface{}{
			"num_qubits":              float64(r.Config.NumQubits),
			"sample_size":             float64(r.Config.SampleSize),
			"error_probability":       r.Config.ErrorProbability,
			"reconciliation_overhead": float64(r.Config.ReconciliationOverhead),
		},
		"stats": map[string]interface{}{
			"raw_bits":        float64(st.RawBits),
			"sifted_bits":     float64(st.SiftedBits),
			"sampled_bits":    float64(st.SampledBits),
			"injected_errors": float64(st.InjectedErrors),
			"qber":            st.QBER,
			"key_bits":        float64(st.KeyBits),
			"sift_mismatches": float64(st.SiftMismatches),
		},
		"key":        r.Result.Key.String(),
		"sifted_key": r.Result.SiftedKey.String(),
	})
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r Run) error {
	s, err := ToStruct(r)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// WriteFrame writes r as a single length-prefixed protobuf frame.
func WriteFrame(w io.ReadWriter, r Run) error {
	s, err := ToStruct(r)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}
	return NewFramer(w).Write(s)
}
