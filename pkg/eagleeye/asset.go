package eagleeye

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/carson/pkg/carsonerr"
)

// TimestampLayout is the fixed-width asset timestamp, YYYYMMDDHHMMSS.mmm in UTC.
const TimestampLayout = "20060102150405.000"

// TimestampNow asks for the most recent image.
const TimestampNow = "now"

// DefaultVideoDuration is the length of a video request without an explicit duration.
const DefaultVideoDuration = 30 * time.Second

// FormatTimestamp renders t in TimestampLayout. Sub-millisecond digits are
// truncated.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// VideoTimestamps returns the start and end timestamps of a video request.
// A zero at means live video starting at now, which is only served as
// LiveVideoFormat; any other format fails with carsonerr.ErrAPI.
func VideoTimestamps(now, at time.Time, d time.Duration, format VideoFormat) (start, end string, err error) {
	if at.IsZero() {
		if format != LiveVideoFormat {
			return "", "", carsonerr.API("live video is only available as %s, not %s", LiveVideoFormat, format)
		}
		at = now
	}
	return FormatTimestamp(at), FormatTimestamp(at.Add(d)), nil
}

// ImageOptions selects an image asset. The zero value is the latest preview
// image.
type ImageOptions struct {
	// At is the image time; zero means now.
	At    time.Time
	Ref   AssetRef
	Class AssetClass
}

func (o ImageOptions) query(cameraID string) url.Values {
	ts := TimestampNow
	if !o.At.IsZero() {
		ts = FormatTimestamp(o.At)
	}
	class := o.Class
	if class == "" {
		class = AssetClassPre
	}
	return url.Values{
		"id":          {cameraID},
		"timestamp":   {ts},
		"asset_class": {string(class)},
	}
}

func (o ImageOptions) path() string {
	ref := o.Ref
	if ref == "" {
		ref = AssetRefPrev
	}
	return fmt.Sprintf(endpointImage, ref)
}

// VideoOptions selects a video asset. The zero value is 30 seconds of live FLV.
type VideoOptions struct {
	// At is the start of the video; zero means live.
	At       time.Time
	Duration time.Duration
	Format   VideoFormat
}

func (o VideoOptions) normalize() VideoOptions {
	if o.Duration <= 0 {
		o.Duration = DefaultVideoDuration
	}
	if o.Format == "" {
		o.Format = VideoFormatFLV
	}
	return o
}

// Validate reports options no request could satisfy, such as live MP4.
func (o VideoOptions) Validate() error {
	o = o.normalize()
	if o.At.IsZero() && o.Format != LiveVideoFormat {
		return carsonerr.API("live video is only available as %s, not %s", LiveVideoFormat, o.Format)
	}
	return nil
}

func (o VideoOptions) query(now time.Time, cameraID string) (url.Values, error) {
	start, end, err := VideoTimestamps(now, o.At, o.Duration, o.Format)
	if err != nil {
		return nil, err
	}
	return url.Values{
		"id":              {cameraID},
		"start_timestamp": {start},
		"end_timestamp":   {end},
	}, nil
}

// Image streams the selected image of the camera into w.
func (c *Camera) Image(ctx context.Context, w io.Writer, opts ImageOptions) error {
	req := Request{Method: http.MethodGet, Path: opts.path(), Query: opts.query(c.id)}
	return c.session.Query(ctx, req, StreamTo(w))
}

// ImageURL returns a pre-authenticated image URL that embeds the session's
// auth key. It fails with carsonerr.ErrAPI when no valid session can be
// established.
func (c *Camera) ImageURL(ctx context.Context, opts ImageOptions) (string, error) {
	return c.assetURL(ctx, opts.path(), opts.query(c.id))
}

// Video streams the selected video of the camera into w.
func (c *Camera) Video(ctx context.Context, w io.Writer, opts VideoOptions) error {
	opts = opts.normalize()
	q, err := opts.query(c.session.now(), c.id)
	if err != nil {
		return err
	}
	req := Request{Method: http.MethodGet, Path: fmt.Sprintf(endpointVideo, opts.Format), Query: q}
	return c.session.Query(ctx, req, StreamTo(w))
}

// VideoURL returns a pre-authenticated video URL, see ImageURL.
func (c *Camera) VideoURL(ctx context.Context, opts VideoOptions) (string, error) {
	opts = opts.normalize()
	q, err := opts.query(c.session.now(), c.id)
	if err != nil {
		return "", err
	}
	return c.assetURL(ctx, fmt.Sprintf(endpointVideo, opts.Format), q)
}

func (c *Camera) assetURL(ctx context.Context, path string, q url.Values) (string, error) {
	if !c.session.CheckAuth(ctx, true) {
		return "", carsonerr.API("unable to establish an eagle eye session for %s", c.UniqueEntityID())
	}
	q.Set("A", c.session.AuthKey())
	return c.session.URL(path) + "?" + q.Encode(), nil
}
