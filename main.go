/*
Copyright © 2024 Dean
*/
package main

import "storepilot/cmd"

func main() {
	cmd.Execute()
}
