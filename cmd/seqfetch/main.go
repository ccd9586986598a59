package main

import "github.com/vietddude/seqfetch/internal/cli"

func main() {
	cli.Execute()
}
