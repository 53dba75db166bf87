// Package stream provides random-access byte sources and an endian-aware cursor
// for decoding binary file headers.
package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/janelia-flyem/bioio/bio"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
)

// Source is a named, fixed-size, random-access byte source.
type Source interface {
	io.ReaderAt
	io.Closer

	// Name identifies the source in errors and logs, e.g., a file path.
	Name() string

	// Size returns the total number of bytes.
	Size() int64
}

type fileSource struct {
	*os.File
	size int64
}

func (f fileSource) Size() int64 {
	return f.size
}

// OpenFile opens a local file as a Source.  A missing file results in a
// bio.MissingFileError.
func OpenFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &bio.MissingFileError{File: path}
		}
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return fileSource{f, fi.Size()}, nil
}

type bytesSource struct {
	*bytes.Reader
	name string
	size int64
}

func (b bytesSource) Name() string { return b.name }
func (b bytesSource) Size() int64  { return b.size }
func (b bytesSource) Close() error { return nil }

// FromBytes wraps an in-memory buffer as a Source.
func FromBytes(name string, data []byte) Source {
	return bytesSource{bytes.NewReader(data), name, int64(len(data))}
}

type bucketSource struct {
	ctx        context.Context
	bucket     *blob.Bucket
	key        string
	size       int64
	ownsBucket bool
}

func (b *bucketSource) Name() string { return b.key }
func (b *bucketSource) Size() int64  { return b.size }

func (b *bucketSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}
	length := int64(len(p))
	if off+length > b.size {
		length = b.size - off
	}
	r, err := b.bucket.NewRangeReader(b.ctx, b.key, off, length, nil)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n, err := io.ReadFull(r, p[:length])
	if err != nil {
		return n, err
	}
	if int64(n) < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}

func (b *bucketSource) Close() error {
	if b.ownsBucket {
		return b.bucket.Close()
	}
	return nil
}

// FromBucket returns a Source reading the object with the given key through ranged
// reads.  The bucket is not closed when the Source is closed.
func FromBucket(ctx context.Context, bucket *blob.Bucket, key string) (Source, error) {
	attrs, err := bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, &bio.MissingFileError{File: key}
		}
		return nil, err
	}
	return &bucketSource{ctx: ctx, bucket: bucket, key: key, size: attrs.Size}, nil
}

// OpenBucketObject opens the bucket at bucketURL, e.g., "gs://my-bucket" or
// "file:///data/plates", and returns a Source over the object at key.
func OpenBucketObject(ctx context.Context, bucketURL, key string) (Source, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("unable to open bucket %q: %v", bucketURL, err)
	}
	src, err := FromBucket(ctx, bucket, key)
	if err != nil {
		bucket.Close()
		return nil, err
	}
	bs := src.(*bucketSource)
	bs.ownsBucket = true
	return bs, nil
}

// Open returns a Source for a location that is either a local path or a URL of the
// form scheme://bucket/key for any registered blob scheme (gs, s3, file, mem).
func Open(ctx context.Context, location string) (Source, error) {
	i := strings.Index(location, "://")
	if i < 0 {
		return OpenFile(location)
	}
	scheme, rest := location[:i], location[i+3:]
	if scheme == "file" {
		return OpenFile("/" + strings.TrimPrefix(rest, "/"))
	}
	slash := strings.Index(rest, "/")
	if slash < 0 || slash == len(rest)-1 {
		return nil, fmt.Errorf("location %q has no object key", location)
	}
	return OpenBucketObject(ctx, scheme+"://"+rest[:slash], rest[slash+1:])
}

// Sniff returns up to n leading bytes of a source without any cursor state.
func Sniff(src Source, n int) []byte {
	if int64(n) > src.Size() {
		n = int(src.Size())
	}
	buf := make([]byte, n)
	got, _ := src.ReadAt(buf, 0)
	return buf[:got]
}
