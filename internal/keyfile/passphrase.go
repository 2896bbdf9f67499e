package keyfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// PassphraseEnvVar names the environment variable consulted before prompting.
const PassphraseEnvVar = "BB84SIM_PASSPHRASE"

// Passphrase returns the passphrase from PassphraseEnvVar, or prompts for it
// on the terminal. With confirm set, the user must type it twice.
func Passphrase(prompt string, confirm bool) ([]byte, error) {
	if env := os.Getenv(PassphraseEnvVar); env != "" {
		return []byte(env), nil
	}
	pass, err := readPassword(os.Stderr, prompt)
	if err != nil {
		return nil, err
	}
	if !confirm {
		return pass, nil
	}
	again, err := readPassword(os.Stderr, "Confirm passphrase: ")
	if err != nil {
		zero(pass)
		return nil, err
	}
	defer zero(again)
	if !bytes.Equal(pass, again) {
		zero(pass)
		return nil, fmt.Errorf("passphrases do not match")
	}
	return pass, nil
}

func readPassword(w io.Writer, prompt string) ([]byte, error) {
	fmt.Fprint(w, prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return nil, fmt.Errorf("cannot read passphrase: stdin is not a terminal; set %s", PassphraseEnvVar)
		}
		defer tty.Close()
		fd = int(tty.Fd())
	}
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pass, nil
}

// zero overwrites b.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
