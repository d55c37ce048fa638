// Package main is the entry point for the ctfmetrics CLI tool, which rebuilds
// flag possessions from recorded CTF matches and computes per-player metrics.
package main

import "github.com/pable/go-ctf-metrics/cmd"

func main() {
	cmd.Execute()
}
