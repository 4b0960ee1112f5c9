// snapshot captures the rendered bulletin page from a running server as an
// image, for printing or sending to the congregation's chat group.
//
// Usage: CHROME_PATH=/path/to/chromium go run ./cmd/snapshot --url http://localhost:8080/ --out boletin.png
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"boletin-iglesia/internal/snapshot"
)

func main() {
	var (
		url     string
		out     string
		quality int
		timeout time.Duration
	)

	flagSet := pflag.NewFlagSet("snapshot", pflag.ExitOnError)
	flagSet.StringVar(&url, "url", "http://localhost:8080/", "bulletin page URL")
	flagSet.StringVarP(&out, "out", "o", "boletin.png", "output file")
	flagSet.IntVar(&quality, "quality", 100, "100 for PNG, lower for JPEG of that quality")
	flagSet.DurationVar(&timeout, "timeout", 60*time.Second, "overall timeout")
	flagSet.Parse(os.Args[1:])

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	img, err := snapshot.Capture(ctx, url, snapshot.Options{
		ChromePath: os.Getenv("CHROME_PATH"),
		Quality:    quality,
		Settle:     500 * time.Millisecond,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(out, img, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", out, len(img))
}
