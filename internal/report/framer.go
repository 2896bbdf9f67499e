package report

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
)

// MaxFrameBytes bounds the size of a single frame accepted by Read.
const MaxFrameBytes = 64 << 20

// A Framer reads and writes framed protocol buffers to a stream. The
// structure of the frame is trivial:  proto-length | proto
type Framer struct {
	rw io.ReadWriter
}

// NewFramer returns a Framer over rw.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{rw: rw}
}

func (f *Framer) Write(m proto.Message) error {
	marshalled, err := proto.Marshal(m)
	if err != nil {
		return err
	}
	if err := binary.Write(f.rw, binary.LittleEndian, int32(len(marshalled))); err != nil {
		return err
	}
	_, err = f.rw.Write(marshalled)
	return err
}

// Read reads the next frame into m. It returns io.EOF if the stream ends
// cleanly between frames.
func (f *Framer) Read(m proto.Message) error {
	var mLen int32
	if err := binary.Read(f.rw, binary.LittleEndian, &mLen); err != nil {
		return err
	}
	if mLen < 0 || mLen > MaxFrameBytes {
		return fmt.Errorf("invalid frame length %d", mLen)
	}
	marshalled := make([]byte, mLen)
	if _, err := io.ReadFull(f.rw, marshalled); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("reading frame body: %w", err)
	}
	return proto.Unmarshal(marshalled, m)
}
