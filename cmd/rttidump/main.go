package main

import "github.com/dbsmedya/rttidump/cmd/rttidump/cmd"

func main() {
	cmd.Execute()
}
