// Package main provides the company_agent CLI: describe companies from the terminal or serve the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "company_agent",
	Short: "Company description assistant",
	Long:  "company_agent looks up each company name on the web and asks a Gemini model to write a detailed company description. Names come from a typed name, a CSV file or a PDF file.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
