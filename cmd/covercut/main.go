// CoverCut: book and notebook cover layout optimizer.
//
// Packs the flat cover pieces of a cover list onto sheets with a genetic
// search over placement orders and writes the best layout as PDF, QR
// labels, DXF and a convergence chart.
//
// Build:
//   go build -o covercut ./cmd/covercut
//
// Usage:
//   covercut optimize --items covers.csv --pdf layout.pdf
//   covercut compare --items covers.xlsx
//   covercut sizes
//   covercut config init

package main

import (
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/piwi3910/CoverCut/internal/cli"
)

func main() {
	defer klog.Flush()

	if err := cli.NewRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		klog.Flush()
		os.Exit(1)
	}
}
