// Command ghbtrace replays a memory access trace through the GHB prefetch
// core and reports how well it predicted the accesses that followed.
package main

import "github.com/caesarchen000/ghbprefetch/cmd/ghbtrace/cmd"

func main() {
	cmd.Execute()
}
