// Command buildergen generates builder types for record declarations read
// from Go source, YAML manifests, OpenAPI or JSON Schema documents.
//
// Typical use is a go:generate directive next to a marked type:
//
//	//go:generate go run github.com/goliatone/go-buildergen/cmd/buildergen generate --source $GOFILE --output command_builder_gen.go
package main

import (
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("buildergen: ")

	if err := newRootCmd(defaultApp()).Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
