// Command s3transfer uploads and downloads files and folders to and from
// S3-compatible object storage.
package main

import (
	"fmt"
	"os"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer"
)

func main() {
	app := newApp(os.Stdout, os.Stderr, s3transfer.New)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
