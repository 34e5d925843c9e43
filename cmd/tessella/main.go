package main

import (
	"fmt"
	"os"

	"github.com/tessella/tessella/internal/cli"
)

func main() {
	app := cli.CLI()
	if err := app.Run(os.Args); err != nil {
		fmt.Printf("%+v\n", err)
		os.Exit(1)
	}
}
