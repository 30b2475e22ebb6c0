package loader

import (
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// decompress wraps r according to the compression suffix of name. It returns
// the reader, the name without the suffix, and a close func for the decoder.
func decompress(r io.Reader, name string) (io.Reader, string, func(), error) {
	noop := func() {}
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, "", noop, err
		}
		return zr, strings.TrimSuffix(name, ".gz"), func() { zr.Close() }, nil
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, "", noop, err
		}
		return zr, strings.TrimSuffix(name, ".zst"), zr.Close, nil
	case strings.HasSuffix(name, ".sz"):
		return snappy.NewReader(r), strings.TrimSuffix(name, ".sz"), noop, nil
	case strings.HasSuffix(name, ".snappy"):
		return snappy.NewReader(r), strings.TrimSuffix(name, ".snappy"), noop, nil
	}
	return r, name, noop, nil
}
