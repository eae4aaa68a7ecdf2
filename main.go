package main

import "projecttutor/backend/cmd"

func main() {
	cmd.Execute()
}
