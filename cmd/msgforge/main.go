package main

import (
	"github.com/mvp-joe/msgforge/internal/cli"
)

func main() {
	cli.Execute()
}
