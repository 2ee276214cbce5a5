package main

import "github.com/jmehdipour/sms-panel/cmd"

func main() {
	cmd.Execute()
}
