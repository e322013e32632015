// Command etl runs the supply chain ETL pipeline: one Sweep → Load →
// Aggregate cycle with --once, or a periodic loop otherwise.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/bootstrap"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	if err := bootstrap.RunETL(*once); err != nil {
		fmt.Fprintf(os.Stderr, "etl: %v\n", err)
		os.Exit(1)
	}
}
