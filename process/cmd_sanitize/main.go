package main

import "invscan/process/sanitize"

func main() {
	sanitize.Run()
}
