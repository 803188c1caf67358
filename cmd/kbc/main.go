package main

import (
	"os"
	"path/filepath"

	"github.com/keboola/kbcstorage-go/internal/cmd"
)

func main() {
	args := append([]string{filepath.Base(os.Args[0])}, os.Args[1:]...)
	os.Exit(cmd.Main(args))
}
