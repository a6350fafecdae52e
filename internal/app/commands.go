package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/aussiebroadwan/carson/pkg/carson"
	"github.com/aussiebroadwan/carson/pkg/eagleeye"
)

// UsageError reports a malformed command line.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func errUsage(msg string) error { return &UsageError{Msg: msg} }

type command struct {
	usage   string
	summary string
	run     func(app *Application, ctx context.Context, args []string) error
}

const (
	usageOpen     = "open <door-id>"
	usageImage    = "image <camera-id> <file> [--at RFC3339] [--ref prev|next|after|asset] [--class all|pre|thumb]"
	usageImageURL = "image-url <camera-id> [--at RFC3339] [--ref ...] [--class ...]"
	usageVideo    = "video <camera-id> <file> [--at RFC3339] [--duration 30s] [--format flv|mp4]"
	usageVideoURL = "video-url <camera-id> [--at RFC3339] [--duration 30s] [--format flv|mp4]"
)

var commands = map[string]command{
	"info": {
		usage:   "info",
		summary: "show the user, buildings, doors and cameras",
		run:     (*Application).runInfo,
	},
	"token": {
		usage:   "token",
		summary: "log in and print a fresh token for --token",
		run:     (*Application).runToken,
	},
	"open": {
		usage:   usageOpen,
		summary: "unlock a door",
		run:     (*Application).runOpen,
	},
	"image": {
		usage:   usageImage,
		summary: "save a camera image",
		run:     (*Application).runImage,
	},
	"image-url": {
		usage:   usageImageURL,
		summary: "print a pre-authenticated image URL",
		run:     (*Application).runImageURL,
	},
	"video": {
		usage:   usageVideo,
		summary: "save a camera video, live when --at is omitted",
		run:     (*Application).runVideo,
	},
	"video-url": {
		usage:   usageVideoURL,
		summary: "print a pre-authenticated video URL",
		run:     (*Application).runVideoURL,
	},
}

// Usage writes the command summary to w.
func Usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Fprintln(w, "Commands:")
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(w, "  %s\n        %s\n", c.usage, c.summary)
	}
}

func (app *Application) runInfo(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage("info takes no arguments")
	}
	if err := app.client.Update(ctx); err != nil {
		return err
	}

	fmt.Fprintf(app.out, "[user]\n%s\n", app.client.User())
	for _, b := range app.client.Buildings() {
		fmt.Fprintf(app.out, "\n[building]\n%s\n", b)
		for _, d := range b.Doors() {
			fmt.Fprintf(app.out, "\n  [door]\n%s\n", indent(d.String()))
		}
		for _, c := range b.Cameras() {
			fmt.Fprintf(app.out, "\n  [camera]\n%s\n", indent(c.String()))
		}
	}
	return nil
}

func (app *Application) runToken(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage("token takes no arguments")
	}
	token, err := app.auth.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, token)
	return nil
}

func (app *Application) runOpen(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage("usage: " + usageOpen)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return errUsage(fmt.Sprintf("invalid door id %q", args[0]))
	}

	door, err := app.findDoor(ctx, id)
	if err != nil {
		return err
	}
	if err := door.Open(ctx); err != nil {
		return err
	}
	fmt.Fprintf(app.out, "opened %s (%d)\n", door.Name(), id)
	return nil
}

func (app *Application) runImage(ctx context.Context, args []string) error {
	fs, opts := imageFlags("image")
	pos, err := parse(fs, args, 2, usageImage)
	if err != nil {
		return err
	}
	imageOpts, err := opts()
	if err != nil {
		return err
	}

	cam, err := app.findCamera(ctx, pos[0])
	if err != nil {
		return err
	}
	return saveTo(pos[1], func(w io.Writer) error { return cam.Image(ctx, w, imageOpts) })
}

func (app *Application) runImageURL(ctx context.Context, args []string) error {
	fs, opts := imageFlags("image-url")
	pos, err := parse(fs, args, 1, usageImageURL)
	if err != nil {
		return err
	}
	imageOpts, err := opts()
	if err != nil {
		return err
	}

	cam, err := app.findCamera(ctx, pos[0])
	if err != nil {
		return err
	}
	u, err := cam.ImageURL(ctx, imageOpts)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, u)
	return nil
}

func (app *Application) runVideo(ctx context.Context, args []string) error {
	fs, opts := videoFlags("video")
	pos, err := parse(fs, args, 2, usageVideo)
	if err != nil {
		return err
	}
	videoOpts, err := opts()
	if err != nil {
		return err
	}
	if err := videoOpts.Validate(); err != nil {
		return err
	}

	cam, err := app.findCamera(ctx, pos[0])
	if err != nil {
		return err
	}
	return saveTo(pos[1], func(w io.Writer) error { return cam.Video(ctx, w, videoOpts) })
}

func (app *Application) runVideoURL(ctx context.Context, args []string) error {
	fs, opts := videoFlags("video-url")
	pos, err := parse(fs, args, 1, usageVideoURL)
	if err != nil {
		return err
	}
	videoOpts, err := opts()
	if err != nil {
		return err
	}
	if err := videoOpts.Validate(); err != nil {
		return err
	}

	cam, err := app.findCamera(ctx, pos[0])
	if err != nil {
		return err
	}
	u, err := cam.VideoURL(ctx, videoOpts)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, u)
	return nil
}

var errNotFound = errors.New("not found")

func (app *Application) findDoor(ctx context.Context, id int64) (*carson.Door, error) {
	if err := app.client.Update(ctx); err != nil {
		return nil, err
	}
	for _, b := range app.client.Buildings() {
		if d, ok := b.Door(id); ok {
			return d, nil
		}
	}
	return nil, fmt.Errorf("door %d: %w", id, errNotFound)
}

func (app *Application) findCamera(ctx context.Context, id string) (*eagleeye.Camera, error) {
	if err := app.client.Update(ctx); err != nil {
		return nil, err
	}
	for _, b := range app.client.Buildings() {
		if c, ok := b.Camera(id); ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("camera %s: %w", id, errNotFound)
}

func imageFlags(name string) (*pflag.FlagSet, func() (eagleeye.ImageOptions, error)) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	at := fs.String("at", "", "image time (RFC 3339), default now")
	ref := fs.String("ref", string(eagleeye.AssetRefPrev), "image relative to --at: prev, next, after or asset")
	class := fs.String("class", string(eagleeye.AssetClassPre), "asset class: all, pre or thumb")

	return fs, func() (eagleeye.ImageOptions, error) {
		t, err := parseTime(*at)
		if err != nil {
			return eagleeye.ImageOptions{}, err
		}
		return eagleeye.ImageOptions{
			At:    t,
			Ref:   eagleeye.AssetRef(*ref),
			Class: eagleeye.AssetClass(*class),
		}, nil
	}
}

func videoFlags(name string) (*pflag.FlagSet, func() (eagleeye.VideoOptions, error)) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	at := fs.String("at", "", "video start (RFC 3339), default live")
	duration := fs.Duration("duration", eagleeye.DefaultVideoDuration, "video length")
	format := fs.String("format", string(eagleeye.VideoFormatFLV), "container: flv or mp4")

	return fs, func() (eagleeye.VideoOptions, error) {
		t, err := parseTime(*at)
		if err != nil {
			return eagleeye.VideoOptions{}, err
		}
		return eagleeye.VideoOptions{
			At:       t,
			Duration: *duration,
			Format:   eagleeye.VideoFormat(*format),
		}, nil
	}
}

// parse parses args with fs and checks for exactly n positional arguments.
func parse(fs *pflag.FlagSet, args []string, n int, usage string) ([]string, error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return nil, errUsage(err.Error())
	}
	if fs.NArg() != n {
		return nil, errUsage("usage: " + usage)
	}
	return fs.Args(), nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errUsage(fmt.Sprintf("invalid time %q, want RFC 3339", s))
	}
	return t, nil
}

// saveTo streams into a temporary file next to path and moves it into place
// once write succeeds. An existing file at path is left alone on failure.
func saveTo(path string, write func(io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
