package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error: load .env: %v\n", err)
			os.Exit(1)
		}
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "compose":
		if err := runCompose(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("overlaypost %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`overlaypost - overlay a template on an image and caption it

Usage:
  overlaypost <command> [arguments]

Commands:
  serve         Start the web form (configured from the environment / .env)
  compose       Composite files from the command line
  version       Print the overlaypost version
  help          Show this help message

Examples:
  SESSION_SECRET=change-me overlaypost serve
  overlaypost compose -template frame.png -content photo.jpg -caption "Launch day"`)
}
