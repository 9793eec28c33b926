package upload

import "io"

// ChunkSize is how much of an inbound upload is resident in memory at once.
// WAV payloads can run to several GiB, so the body is never read whole.
const ChunkSize = 5 * 1024 * 1024

// ChunkReader pulls a body stream in fixed-size chunks. It is a lazy, finite,
// non-restartable sequence: Next returns io.EOF once the stream is exhausted
// and propagates any underlying read failure.
type ChunkReader struct {
	src  io.Reader
	buf  []byte
	done bool
}

// NewChunkReader returns a reader producing chunks of at most ChunkSize bytes.
func NewChunkReader(src io.Reader) *ChunkReader {
	return newChunkReaderSize(src, ChunkSize)
}

func newChunkReaderSize(src io.Reader, size int) *ChunkReader {
	return &ChunkReader{src: src, buf: make([]byte, size)}
}

// Next returns the next chunk. The returned slice is only valid until the
// following call; callers must consume it before asking for more.
func (r *ChunkReader) Next() ([]byte, error) {
	if r.done {
		return nil, io.EOF
	}

	n, err := io.ReadFull(r.src, r.buf)
	switch {
	case err == io.EOF:
		r.done = true
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF:
		// short final chunk
		r.done = true
		return r.buf[:n], nil
	case err != nil:
		r.done = true
		return nil, err
	}
	return r.buf[:n], nil
}
