package main

import "github.com/KaramelBytes/acm-ledger/cmd"

func main() {
	cmd.Execute()
}
