package main

import "campus-rides-backend/cmd"

func main() {
	cmd.Run()
}
