package main

import "github.com/andrescamacho/reliefops-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
