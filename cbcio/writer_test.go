package cbcio

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"
)

// onlyReader hides WriterTo so io.CopyBuffer honours the buffer size.
type onlyReader struct {
	io.Reader
}

func TestWriter(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	key := make([]byte, KeySize)
	iv := make([]byte, BlockSize)
	rng.Read(key)
	rng.Read(iv)
	plain := make([]byte, 100*1024+5)
	rng.Read(plain)
	seg := encryptSegment(t, plain, key, iv)

	bufSizes := []int{1, 7, 15, 16, 17, 32 * 1024}
	for _, bufSize := range bufSizes {
		var out bytes.Buffer
		w, err := NewWriter(&out, key, iv)
		if err != nil {
			t.Fatal(err)
		}
		_, err = io.CopyBuffer(w, onlyReader{bytes.NewReader(seg[BlockSize:])}, make([]byte, bufSize))
		if err != nil {
			t.Errorf("%v when buf size is %d", err, bufSize)
		}

		if err = w.Final(); err != nil {
			t.Errorf("%v when buf size is %d", err, bufSize)
		}
		if !bytes.Equal(out.Bytes(), plain) {
			t.Errorf("plaintext mismatch when buf size is %d", bufSize)
		}
	}
}

func TestSegmentWriterMatchesDecrypt(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	key := make([]byte, KeySize)
	iv := make([]byte, BlockSize)
	rng.Read(key)
	rng.Read(iv)
	plain := make([]byte, 4099)
	rng.Read(plain)
	seg := encryptSegment(t, plain, key, iv)

	want, err := Decrypt(seg, key)
	if err != nil {
		t.Fatal(err)
	}
	for _, bufSize := range []int{1, 5, 16, 33, 8192} {
		var out bytes.Buffer
		sw, err := NewSegmentWriter(&out, key)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.CopyBuffer(sw, onlyReader{bytes.NewReader(seg)}, make([]byte, bufSize)); err != nil {
			t.Fatalf("buf size %d: %v", bufSize, err)
		}
		if err := sw.Final(); err != nil {
			t.Fatalf("buf size %d: %v", bufSize, err)
		}
		if !bytes.Equal(out.Bytes(), want) {
			t.Fatalf("buf size %d: output differs from Decrypt", bufSize)
		}
	}
}

func TestWriterErrors(t *testing.T) {
	if _, err := NewWriter(io.Discard, make([]byte, 10), make([]byte, BlockSize)); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}

	w, err := NewWriter(io.Discard, make([]byte, KeySize), make([]byte, BlockSize))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(make([]byte, 17)); err != nil {
		t.Fatal(err)
	}
	if err := w.Final(); !errors.Is(err, ErrInvalidCiphertextLength) {
		t.Fatalf("expected ErrInvalidCiphertextLength, got %v", err)
	}

	sw, err := NewSegmentWriter(io.Discard, make([]byte, KeySize))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sw.Write(make([]byte, 9)); err != nil {
		t.Fatal(err)
	}
	if err := sw.Final(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}
