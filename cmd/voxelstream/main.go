// Command voxelstream runs the streaming core without a window and
// manages saved worlds.
//
//	voxelstream run -config world.yaml -duration 1m
//	voxelstream export -out world.tar.zst
//	voxelstream import world.tar.zst
//	voxelstream index -limit 20
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"voxelstream/internal/config"
	"voxelstream/internal/logging"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "run":
			runCmd(os.Args[2:])
			return
		case "export":
			exportCmd(os.Args[2:])
			return
		case "import":
			importCmd(os.Args[2:])
			return
		case "index":
			indexCmd(os.Args[2:])
			return
		case "-h", "--help", "help":
			usage()
			return
		}
	}
	runCmd(os.Args[1:])
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: voxelstream [run|export|import|index] [flags]")
}

func loadConfig(path string) (config.Config, *zap.Logger) {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(2)
	}
	return cfg, log
}
