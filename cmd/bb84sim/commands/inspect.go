package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alan-christopher/bb84sim/internal/keyfile"
	"github.com/alan-christopher/bb84sim/internal/report"
)

func inspectCmd(g *globals) *cobra.Command {
	var (
		sealed bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print a report written by run, decrypting and decoding it as needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if sealed {
				pass, err := keyfile.Passphrase("Passphrase: ", false)
				if err != nil {
					return err
				}
				if data, err = keyfile.Open(pass, data); err != nil {
					return err
				}
			}
			w := cmd.OutOrStdout()
			switch format {
			case "raw":
				_, err = w.Write(data)
				return err
			case "proto":
				n, err := printFrames(w, bytes.NewBuffer(data))
				g.logf("Decoded %d frames from %s", n, args[0])
				return err
			}
			return fmt.Errorf("unknown format %q, want proto or raw", format)
		},
	}
	cmd.Flags().BoolVar(&sealed, "sealed", false, "the file was written with run --seal")
	cmd.Flags().StringVarP(&format, "format", "f", "proto", "file contents: proto (framed reports) or raw")
	return cmd
}

// printFrames prints every framed report in rw as JSON.
func printFrames(w io.Writer, rw io.ReadWriter) (int, error) {
	fr := report.NewFramer(rw)
	opts := protojson.MarshalOptions{Multiline: true, Indent: "  "}
	for n := 0; ; n++ {
		s := &structpb.Struct{}
		if err := fr.Read(s); errors.Is(err, io.EOF) {
			return n, nil
		} else if err != nil {
			return n, fmt.Errorf("frame %d: %w", n, err)
		}
		b, err := opts.Marshal(s)
		if err != nil {
			return n, err
		}
		if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
			return n, err
		}
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
