package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `
ride-dispatch - driver dispatch and ride matching service

Usage:
  dispatch [-config path/to/config.yaml]

Configuration is read from the YAML file, overridable via environment
variables. ABLY_API_KEY ("keyName:keySecret") is required.
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
