// ismd runs the action scheduler as a long-lived process with an
// interactive operator console.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kaliklipper/ism-go/internal/console"
	"github.com/kaliklipper/ism-go/internal/engine"
	"github.com/kaliklipper/ism-go/internal/pack/testsupport"
)

const version = "0.1.0"

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version")
		configPath  = flag.String("config", "properties.yaml", "Path to the properties YAML file")
		tag         = flag.String("tag", "", "Runtime tag (overrides properties.yaml runtime.tag)")
		withTest    = flag.Bool("with-test-support", false, "Register the file-IPC test-support pack for console import")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `ismd v%s - extensible action scheduler

Usage: ismd [options]

Options:
`, version)
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("ismd v%s\n", version)
		return
	}

	eng, err := engine.New(*configPath, *tag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	historyFile := filepath.Join(os.TempDir(), "ismd_history")
	c, err := console.New(eng, historyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *withTest {
		cfg := eng.Config()
		c.RegisterPack(testsupport.New(
			cfg.StringExtra("test", "support", "inbound"),
			cfg.StringExtra("test", "support", "outbound"),
			cfg.StringExtra("test", "support", "archive"),
		))
	}

	stopWatch, err := eng.WatchConfig(*configPath, func() {
		eng.Logger().Warn("properties file changed on disk; restart ismd to pick up the new values")
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer stopWatch()

	if err := eng.Start(false); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := c.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
