package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/warp/financeflow/cli"
)

var version = "dev"

func main() {
	if err := cli.NewApp(version).Execute(nil); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("Error: ")+err.Error())
		os.Exit(1)
	}
}
