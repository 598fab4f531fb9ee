package enrich

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/media"
	"github.com/tbourn/go-social-backend/internal/queue"
	"github.com/tbourn/go-social-backend/internal/repo"
)

const (
	thumbMaxDim      = 1200
	thumbJPEGQuality = 85
)

// Thumbnailer processes thumbnail jobs: it loads the post's full-size image
// from the media store, fits it into a 1200x1200 box, flattens transparency
// onto white, encodes JPEG, and records the thumbnail URL on the post.
//
// Any failure (missing file, undecodable image, storage error) is logged
// and the job acked: a thumbnail is cosmetic and a retry would hit the same
// broken input, so the post simply stays without one.
type Thumbnailer struct {
	DB    *gorm.DB
	Media *media.Store
}

// NewThumbnailer constructs a Thumbnailer.
func NewThumbnailer(db *gorm.DB, m *media.Store) *Thumbnailer {
	return &Thumbnailer{DB: db, Media: m}
}

// Handle implements queue.Handler for thumbnail jobs.
func (t *Thumbnailer) Handle(ctx context.Context, body []byte) queue.Decision {
	var job queue.ThumbnailJob
	if err := json.Unmarshal(body, &job); err != nil {
		log.Warn().Err(err).Msg("thumbnail: malformed job dropped")
		return queue.Drop
	}

	src, err := t.Media.ResolveFull(job.ImagePath)
	if err != nil {
		log.Warn().Err(err).Int64("post_id", job.PostID).Str("image", job.ImagePath).Msg("thumbnail: unresolvable image")
		return queue.Ack
	}

	img, err := imaging.Open(src)
	if err != nil {
		log.Warn().Err(err).Int64("post_id", job.PostID).Str("path", src).Msg("thumbnail: open image failed")
		return queue.Ack
	}

	thumb := imaging.Fit(img, thumbMaxDim, thumbMaxDim, imaging.Lanczos)
	flat := flattenOnWhite(thumb)

	// The thumbnail keeps the original file name (thumb_ prefix) but the
	// content is always JPEG, so encode by format, not by extension.
	dst := t.Media.ThumbPath(job.ImagePath)
	f, err := os.Create(dst)
	if err != nil {
		log.Warn().Err(err).Int64("post_id", job.PostID).Str("path", dst).Msg("thumbnail: create file failed")
		return queue.Ack
	}
	encErr := imaging.Encode(f, flat, imaging.JPEG, imaging.JPEGQuality(thumbJPEGQuality))
	if cerr := f.Close(); encErr == nil {
		encErr = cerr
	}
	if encErr != nil {
		log.Warn().Err(encErr).Int64("post_id", job.PostID).Str("path", dst).Msg("thumbnail: encode failed")
		_ = os.Remove(dst)
		return queue.Ack
	}

	if err := repo.SetThumbnail(ctx, t.DB, job.PostID, media.ThumbURL(job.ImagePath)); err != nil {
		log.Warn().Err(err).Int64("post_id", job.PostID).Msg("thumbnail: store result failed")
		return queue.Ack
	}

	log.Info().Int64("post_id", job.PostID).Str("thumbnail", media.ThumbURL(job.ImagePath)).Msg("thumbnail generated")
	return queue.Ack
}

// flattenOnWhite composites img over a white background, discarding any
// alpha channel so the JPEG encoder gets opaque pixels.
func flattenOnWhite(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}
