package main

import (
	"fmt"
	"os"

	"github.com/blockedby/hiring-pipeline/internal/seed"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("No files to check.")
		os.Exit(0)
	}

	failed := false
	for _, path := range os.Args[1:] {
		f, err := seed.Load(path)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			failed = true
			continue
		}
		if err := f.Validate(); err != nil {
			fmt.Printf("❌ Invalid seed %s:\n%v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("✅ %s is valid (%d jobs, %d applications, %d interviews)\n",
			path, len(f.Jobs), len(f.Applications), len(f.Interviews))
	}

	if failed {
		os.Exit(1)
	}
}
