package main

import "github.com/llehouerou/mediaplayer/internal/cli"

func main() {
	cli.Execute()
}
