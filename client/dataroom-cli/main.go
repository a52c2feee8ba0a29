package main

import "dataroom/client/dataroom-cli/cmd"

func main() {
	cmd.Execute()
}
