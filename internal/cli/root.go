// Package cli implements the aistudio command line.
package cli

import (
	"fmt"
	"io"
	"os"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run dispatches args to a subcommand
func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "image":
		return runImage(args[1:])
	case "video":
		return runVideo(args[1:])
	case "serve":
		return runServe(args[1:])
	case "models":
		return runModels(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Fprintln(stdout, "aistudio: generate images and videos with Zhipu CogView/CogVideoX")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Commands:")
	fmt.Fprintln(stdout, "  image   generate an image from a prompt and save it")
	fmt.Fprintln(stdout, "  video   generate a video from a prompt and/or source image and save it")
	fmt.Fprintln(stdout, "  serve   run the artifact download proxy")
	fmt.Fprintln(stdout, "  models  list the models of the configured provider")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Configuration:")
	fmt.Fprintln(stdout, "  ZHIPU_API_KEY, ZHIPU_API_ENDPOINT, ZHIPU_IMAGE_MODEL, ZHIPU_VIDEO_MODEL")
	fmt.Fprintln(stdout, "  AISTUDIO_* variables, a .env file, or --config <file.yaml>")
}
