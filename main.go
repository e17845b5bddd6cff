package main

import (
	"log"

	"github.com/hireloop/refcheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
