package submit

import (
	"context"
	"fmt"
	"os"
)

// Input is one part of a submission: a file chosen by the user, raw bytes,
// or a document generated on demand.
type Input interface {
	Resolve(ctx context.Context) ([]byte, error)
	String() string
}

type fileInput struct{ path string }

// File reads the part from path when the submission is assembled.
func File(path string) Input { return fileInput{path: path} }

func (f fileInput) Resolve(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return data, nil
}

func (f fileInput) String() string { return f.path }

type bytesInput []byte

// Bytes uses data as is.
func Bytes(data []byte) Input { return bytesInput(data) }

func (b bytesInput) Resolve(context.Context) ([]byte, error) { return b, nil }

func (b bytesInput) String() string { return "bytes" }

type generatedInput func(ctx context.Context) ([]byte, error)

// Generated finalizes a document with fn when the submission is assembled.
func Generated(fn func(ctx context.Context) ([]byte, error)) Input { return generatedInput(fn) }

func (g generatedInput) Resolve(ctx context.Context) ([]byte, error) { return g(ctx) }

func (g generatedInput) String() string { return "generated" }
