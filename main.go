package main

import (
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/taskhooks/cmd"
)

// init sets the default logging level until flags are parsed.
func init() {
	logrus.SetLevel(logrus.InfoLevel)
}

func main() {
	cmd.Execute()
}
