package main

import (
	"log"

	"github.com/oseayemenre/libsy/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatal(err)
	}
}
