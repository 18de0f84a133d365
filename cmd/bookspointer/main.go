// Package main wires together the bookspointer pipeline binary.
package main

import "github.com/samircd4/bookspointer/cmd"

func main() {
	cmd.Execute()
}
