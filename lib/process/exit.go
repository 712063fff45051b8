// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Fatal writes "program: error: err" to stderr and exits with code 1.
// Use it in main() for errors from run() where the structured logger
// may not be initialized.
func Fatal(err error) {
	report(os.Stderr, filepath.Base(os.Args[0]), err)
	os.Exit(1)
}

func report(w io.Writer, program string, err error) {
	fmt.Fprintf(w, "%s: error: %v\n", program, err)
}
