// Command slimstream feeds a document into the streaming facade
// chunk-by-chunk, simulating an LLM emitting it token by token, and
// prints the stabilized IR snapshot after each chunk.
package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func main() {
	cli.MainContext(context.Background(), RootCommand())
}
