package main

import "github.com/ValentinKolb/xferbench/cmd"

func main() {
	cmd.Execute()
}
