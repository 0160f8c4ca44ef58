// Package cbcio decrypts AES-128-CBC protected HLS segments whose first block
// carries the IV, either whole (Decrypt) or while streaming (Writer).
package cbcio

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"episodedl/failure"
)

const (
	BlockSize = aes.BlockSize
	KeySize   = 16
)

var (
	ErrTruncated               = fmt.Errorf("%w: segment shorter than one block", failure.ErrCrypto)
	ErrInvalidKeyLength        = fmt.Errorf("%w: invalid key length", failure.ErrCrypto)
	ErrInvalidCiphertextLength = fmt.Errorf("%w: invalid ciphertext length", failure.ErrCrypto)
	ErrPaddingInvalid          = fmt.Errorf("%w: invalid padding", failure.ErrCrypto)
)

// Decrypt treats the first block of encrypted as the IV, decrypts the rest
// with key and strips the PKCS7 padding.
func Decrypt(encrypted, key []byte) ([]byte, error) {
	if len(encrypted) < BlockSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrTruncated, len(encrypted))
	}
	iv, ciphertext := encrypted[:BlockSize], encrypted[BlockSize:]

	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeyLength, len(key))
	}
	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidCiphertextLength, len(ciphertext))
	}

	cipherBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(cipherBlock, iv).CryptBlocks(plain, ciphertext)

	padLen, err := padding(plain[len(plain)-BlockSize:])
	if err != nil {
		return nil, err
	}
	return plain[:len(plain)-padLen], nil
}

// padding validates the PKCS7 padding of the final plaintext block and
// returns its length.
func padding(last []byte) (int, error) {
	padLen := int(last[len(last)-1])
	if padLen == 0 || padLen > len(last) {
		return 0, fmt.Errorf("%w: pad byte %d", ErrPaddingInvalid, padLen)
	}
	for i := 2; i <= padLen; i++ {
		if int(last[len(last)-i]) != padLen {
			return 0, fmt.Errorf("%w: inconsistent pad bytes", ErrPaddingInvalid)
		}
	}
	return padLen, nil
}
