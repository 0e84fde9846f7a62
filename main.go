package main

import "github.com/KaramelBytes/xdrstat/cmd"

func main() {
	cmd.Execute()
}
