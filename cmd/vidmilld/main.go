// Command vidmilld runs the vidmill conversion daemon with the resolved
// configuration and default runtime options.
package main

import (
	"context"
	"fmt"
	"os"

	"vidmill/internal/config"
	"vidmill/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
