package main

import (
	"github.com/deamwork/azure-redis/cmd"
)

var (
	Version = "dev"
)

func main() {
	cmd.Execute(Version)
}
