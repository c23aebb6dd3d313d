package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pp-cti/policr/internal/eventr"
	"github.com/pp-cti/policr/internal/policr/logger"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		genCmd := flag.NewFlagSet("generate", flag.ExitOnError)
		configPath := genCmd.String("config", "", "Path to generator config file")
		debug := genCmd.Bool("debug", false, "Log every written event")
		genCmd.Parse(os.Args[2:])
		if *configPath == "" {
			fmt.Println("Error: --config is required for 'generate'")
			genCmd.Usage()
			os.Exit(1)
		}
		level := "info"
		if *debug {
			level = "debug"
		}
		if err := logger.InitLogger(logger.LogConfig{Level: level}); err != nil {
			fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
			os.Exit(1)
		}

		cfg, err := eventr.ReadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		paths, err := eventr.Generate(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, p := range paths {
			fmt.Println(p)
		}

	case "relations":
		fmt.Println("flat relations:")
		for _, r := range eventr.Relations() {
			fmt.Printf("  %s\n", r)
		}
		fmt.Println("object templates:")
		for _, t := range eventr.Templates() {
			fmt.Printf("  %s\n", t)
		}

	case "help", "--help", "-h":
		printHelp()
	default:
		fmt.Printf("Unknown subcommand: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`Usage: eventr <subcommand> [--config <path>]`)
	fmt.Println()
	fmt.Println("Subcommands:")
	fmt.Println("  generate  --config <path>   Write synthetic capture events")
	fmt.Println("  relations                   List the relations and templates used")
	fmt.Println("  help                        Show this help message")
}
