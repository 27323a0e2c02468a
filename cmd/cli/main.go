package main

import (
	"github.com/sportlines/totalcast/pkg/cli"
)

func main() {
	cli.Execute()
}
