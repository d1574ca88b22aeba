package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/feitianbubu/aistudio"
)

// userError carries the localized text shown to the user; the wrapped error
// holds the detail that goes to the log
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

func (r *runtime) fail(kind aistudio.MediaKind, op string, err error) error {
	r.logger.Printf("%s failed: %v", op, err)
	msg := aistudio.Describe(err, kind, r.lang)
	printFailure(stderr, msg)
	return &userError{msg: msg, err: err}
}

func runImage(args []string) error {
	fs := flag.NewFlagSet("image", flag.ContinueOnError)
	common := addCommonFlags(fs)
	prompt := fs.String("prompt", "", "image description (or pass it as arguments)")
	size := fs.String("size", string(aistudio.DefaultImageSize), "image size, e.g. 1024x1024")
	model := fs.String("model", "", "model override")
	name := fs.String("name", "", "output file name (default generated-image-<ms>.png)")
	noDownload := fs.Bool("no-download", false, "print the URL without saving the file")

	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := firstNonEmpty(strings.TrimSpace(*prompt), strings.TrimSpace(strings.Join(fs.Args(), " ")))

	rt, err := loadRuntime(common)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	line := newProgressLine(stdout, aistudio.Message(aistudio.MsgGenerating, rt.lang))
	session, err := rt.session(line.Update)
	if err != nil {
		return err
	}
	defer session.Close()

	printTitle(stdout, "aistudio image")
	result, err := session.GenerateImage(ctx, &aistudio.ImageRequest{
		Prompt: text,
		Size:   aistudio.ImageSize(*size),
		Model:  *model,
	})
	line.Done()
	if err != nil {
		return rt.fail(aistudio.MediaImage, "image generation", err)
	}

	printOK(stdout, aistudio.Message(aistudio.MsgImageGenerated, rt.lang))
	printField(stdout, "url", result.URL)
	if *noDownload {
		return nil
	}

	fmt.Fprintln(stdout, aistudio.Message(aistudio.MsgDownloading, rt.lang))
	path, err := session.Download(ctx, result, *name)
	if err != nil {
		return rt.fail(aistudio.MediaImage, "image download", err)
	}
	printOK(stdout, aistudio.Message(aistudio.MsgImageDownloaded, rt.lang))
	printField(stdout, "file", path)
	return nil
}

func runVideo(args []string) error {
	fs := flag.NewFlagSet("video", flag.ContinueOnError)
	common := addCommonFlags(fs)
	prompt := fs.String("prompt", "", "video description (or pass it as arguments)")
	image := fs.String("image", "", "source image: local file (max 5MB) or URL")
	size := fs.String("size", string(aistudio.DefaultVideoSize), "video size, e.g. 1920x1080")
	duration := fs.Int("duration", aistudio.DefaultDuration, "duration in seconds: 5|10")
	fps := fs.Int("fps", aistudio.DefaultFPS, "frame rate: 30|60")
	audio := fs.Bool("audio", false, "generate an audio track")
	model := fs.String("model", "", "model override")
	name := fs.String("name", "", "output file name (default generated-video-<ms>.mp4)")
	noDownload := fs.Bool("no-download", false, "print the URL without saving the file")

	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := firstNonEmpty(strings.TrimSpace(*prompt), strings.TrimSpace(strings.Join(fs.Args(), " ")))

	rt, err := loadRuntime(common)
	if err != nil {
		return err
	}
	defer rt.Close()

	source, err := sourceImage(strings.TrimSpace(*image))
	if err != nil {
		return rt.fail(aistudio.MediaVideo, "read source image", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	line := newProgressLine(stdout, aistudio.Message(aistudio.MsgGenerating, rt.lang))
	session, err := rt.session(line.Update)
	if err != nil {
		return err
	}
	defer session.Close()

	printTitle(stdout, "aistudio video")
	result, err := session.GenerateVideo(ctx, &aistudio.GenerationRequest{
		Prompt:      text,
		SourceImage: source,
		Size:        aistudio.VideoSize(*size),
		Duration:    *duration,
		FPS:         *fps,
		WithAudio:   *audio,
		Model:       *model,
	})
	line.Done()
	if err != nil {
		return rt.fail(aistudio.MediaVideo, "video generation", err)
	}

	printOK(stdout, aistudio.Message(aistudio.MsgVideoGenerated, rt.lang))
	printField(stdout, "url", result.URL)
	if result.CoverURL != "" {
		printField(stdout, "cover", result.CoverURL)
	}
	if *noDownload {
		return nil
	}

	fmt.Fprintln(stdout, aistudio.Message(aistudio.MsgDownloading, rt.lang))
	path, err := session.Download(ctx, result, *name)
	if err != nil {
		return rt.fail(aistudio.MediaVideo, "video download", err)
	}
	printOK(stdout, aistudio.Message(aistudio.MsgVideoDownloaded, rt.lang))
	printField(stdout, "file", path)
	return nil
}

func runModels(args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	common := addCommonFlags(fs)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := loadRuntime(common)
	if err != nil {
		return err
	}
	defer rt.Close()

	client, err := rt.client()
	if err != nil {
		return err
	}
	printTitle(stdout, client.GetProviderName())
	for _, m := range client.GetSupportedModels() {
		fmt.Fprintln(stdout, "  "+m)
	}
	return nil
}

// sourceImage accepts a URL or data URI as-is and encodes anything else as
// a local file
func sourceImage(v string) (string, error) {
	switch {
	case v == "":
		return "", nil
	case strings.HasPrefix(v, "http://"), strings.HasPrefix(v, "https://"), strings.HasPrefix(v, "data:"):
		return v, nil
	default:
		return aistudio.EncodeImageFile(v)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
