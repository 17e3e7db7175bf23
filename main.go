package main

import (
	"os"

	"github.com/entra-rp/entra-rp/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
