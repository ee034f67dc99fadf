package main

import "lovehour-backend/cmd"

func main() {
	cmd.Run()
}
