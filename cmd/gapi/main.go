package main

import (
	"os"

	"github.com/wilsonkkyip/google-apis-go-client/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
