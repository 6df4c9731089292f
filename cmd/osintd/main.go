package main

import (
	"log"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "osintd",
		Short: "Conflict-news aggregation and analysis service",
	}
	root.AddCommand(serveCMD())
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
