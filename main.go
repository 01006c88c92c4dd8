package main

import (
	"github.com/relayscan/relayscan/cmd"
)

func main() {
	cmd.Execute()
}
