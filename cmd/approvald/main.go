// Command approvald runs the approval-distribution gossip node.
package main

import "github.com/parachain/approval-distribution/internal/cli"

func main() {
	cli.Execute()
}
