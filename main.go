package main

import "nginst/internal/nginst"

func main() {
	nginst.Main()
}
