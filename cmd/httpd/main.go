// Command httpd serves the read-side KPI API for dashboards.
package main

import (
	"fmt"
	"os"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/bootstrap"
)

func main() {
	if err := bootstrap.RunServer(); err != nil {
		fmt.Fprintf(os.Stderr, "httpd: %v\n", err)
		os.Exit(1)
	}
}
