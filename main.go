package main

import (
	"fmt"
	"os"
	"strings"

	"postboard/service"
)

const CliVersion = "1.0.0"

// exit is replaced in tests.
var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches the command line.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	args := os.Args[2:]
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help", "-h", "--help":
		printHelp()
	case "version":
		fmt.Printf("postboard version %s\n", CliVersion)
	case "serve":
		if code := service.RunAppServer(args); code != 0 {
			exit(code)
		}
	case "db":
		service.HandleDBCommand(args)
	case "posts":
		service.HandlePostsCommand(args)
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: postboard <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve [--config <file>] [--addr <addr>]
                                 Run the post service until interrupted.
  db <init|clean|backup|restore> Manage the post database (see "db help").
  posts <list|show|create|update|delete>
                                 Manage posts on a running server (see "posts help").
`
	fmt.Println(helpText)
}
