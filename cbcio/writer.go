package cbcio

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"

	"episodedl/utils"
)

type Writer struct {
	wr  io.Writer
	buf []byte

	blockMode cipher.BlockMode
	bSize     int
}

// NewWriter returns a Writer decrypting with key and iv into wr.
func NewWriter(wr io.Writer, key []byte, iv []byte) (*Writer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeyLength, len(key))
	}
	cipherBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}

	blockMode := cipher.NewCBCDecrypter(cipherBlock, iv)
	return &Writer{
		wr:        wr,
		buf:       make([]byte, 0, blockMode.BlockSize()),
		blockMode: blockMode,
		bSize:     blockMode.BlockSize(),
	}, nil
}

// Write decrypts the input and write it to the underlying writer
// with last block buffered for future un-padding
func (w *Writer) Write(p []byte) (n int, err error) {
	decryptLen := utils.Floor0(len(w.buf)+len(p), w.bSize)

	if decryptLen > 0 {
		decryptBuf := make([]byte, decryptLen)
		// complete the pending block from the head of p
		n += copy(w.buf[len(w.buf):w.bSize], p)
		w.blockMode.CryptBlocks(decryptBuf, w.buf[:w.bSize])
		w.blockMode.CryptBlocks(decryptBuf[w.bSize:], p[n:decryptLen-len(w.buf)])
		w.buf = w.buf[:0]
		n += decryptLen - w.bSize

		if _, err = w.wr.Write(decryptBuf); err != nil {
			return
		}
	}

	nn := copy(w.buf[len(w.buf):w.bSize], p[n:])
	w.buf = w.buf[:len(w.buf)+nn]
	n += nn

	return
}

// Final un-pads the held back block and writes it to the underlying writer.
func (w *Writer) Final() error {
	if len(w.buf) != w.bSize {
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidCiphertextLength, len(w.buf))
	}

	w.blockMode.CryptBlocks(w.buf, w.buf)

	padLen, err := padding(w.buf)
	if err != nil {
		return err
	}

	_, err = w.wr.Write(w.buf[:w.bSize-padLen])
	return err
}

// SegmentWriter takes the IV from the first block written to it and
// decrypts everything after it, matching the input shape of Decrypt.
type SegmentWriter struct {
	wr  io.Writer
	key []byte
	iv  []byte
	w   *Writer
}

func NewSegmentWriter(wr io.Writer, key []byte) (*SegmentWriter, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeyLength, len(key))
	}
	return &SegmentWriter{
		wr:  wr,
		key: append([]byte(nil), key...),
		iv:  make([]byte, 0, BlockSize),
	}, nil
}

func (s *SegmentWriter) Write(p []byte) (n int, err error) {
	if s.w == nil {
		n = copy(s.iv[len(s.iv):BlockSize], p)
		s.iv = s.iv[:len(s.iv)+n]
		if len(s.iv) < BlockSize {
			return n, nil
		}
		if s.w, err = NewWriter(s.wr, s.key, s.iv); err != nil {
			return n, err
		}
	}
	nn, err := s.w.Write(p[n:])
	return n + nn, err
}

// Final flushes the last block. It fails with ErrTruncated when no full IV
// was ever written.
func (s *SegmentWriter) Final() error {
	if s.w == nil {
		return fmt.Errorf("%w: got %d bytes", ErrTruncated, len(s.iv))
	}
	return s.w.Final()
}
