package main

import "course-routine/cmd"

func main() {
	cmd.Execute()
}
