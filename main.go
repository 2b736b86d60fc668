package main

import "github.com/frahmantamala/expense-reconciliation/cmd"

func main() {
	cmd.Execute()
}
