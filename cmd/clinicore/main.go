package main

import "github.com/oriolvila/clinicore-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
