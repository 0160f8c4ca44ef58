package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"episodedl/cbcio"
)

func newDecryptCommand() *cobra.Command {
	var keyHex, keyFile string

	cmd := &cobra.Command{
		Use:         "decrypt <input> <output>",
		Short:       "Decrypt a downloaded segment whose first 16 bytes are the IV",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadKey(keyHex, keyFile)
			if err != nil {
				return err
			}
			n, err := decryptFile(args[0], args[1], key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", n, args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&keyHex, "key", "", "Decryption key in 32-char hex form")
	cmd.Flags().StringVar(&keyFile, "key-file", "", "File holding the raw 16-byte key")
	cmd.MarkFlagsMutuallyExclusive("key", "key-file")
	cmd.MarkFlagsOneRequired("key", "key-file")
	return cmd
}

func loadKey(keyHex, keyFile string) ([]byte, error) {
	var key []byte
	if keyFile != "" {
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key = data
	} else {
		data, err := hex.DecodeString(strings.TrimSpace(keyHex))
		if err != nil {
			return nil, fmt.Errorf("invalid key given: %w", err)
		}
		key = data
	}
	if len(key) != cbcio.KeySize {
		return nil, errors.New("please provide a 16-byte key (32-char hex form)")
	}
	return key, nil
}

func decryptFile(input, output string, key []byte) (int64, error) {
	in, err := os.Open(input)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: out}
	w, err := cbcio.NewSegmentWriter(cw, key)
	if err == nil {
		if _, err = io.Copy(w, in); err == nil {
			err = w.Final()
		}
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(output)
		return 0, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
