// Command execgraph converts orchestration graph JSON into execution
// pipeline trees without running the HTTP server.
//
//	execgraph transform build.json --indent
//	curl -s $API/graph | execgraph count -
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
