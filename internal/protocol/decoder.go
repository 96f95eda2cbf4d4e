package protocol

import "io"

// FrameSource yields complete frames. It returns io.EOF once the server
// has closed the protocol stream.
type FrameSource interface {
	ReceiveFrame() ([]byte, error)
}

// Decoder is a pull based sequence of messages read from one connection.
// Once Next has returned an error the sequence is over and every further
// call returns that same error.
type Decoder struct {
	src FrameSource
	err error
}

func NewDecoder(src FrameSource) *Decoder {
	return &Decoder{src: src}
}

func (d *Decoder) Next() (Message, error) {
	if d.err != nil {
		return nil, d.err
	}
	frame, err := d.src.ReceiveFrame()
	if err != nil {
		d.err = err
		return nil, err
	}
	msg, err := Decode(frame)
	if err != nil {
		d.err = err
		return nil, err
	}
	return msg, nil
}

// Done reports whether the sequence ended gracefully.
func (d *Decoder) Done() bool {
	return d.err == io.EOF
}
