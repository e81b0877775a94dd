// Package images collects the image files a converted document
// references into the images directory, optionally downscaling and
// recompressing them, and rewrites the references to match.
package images

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/image/draw"
)

var (
	imageRefRE = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)

	// Size attributes pandoc copies from Word image runs.
	sizeAttrsRE = regexp.MustCompile(`(!\[.*?\]\(.*?\.(?:png|jpg|jpeg|gif|svg)\))\{(?:width|height)=".*?"(?:\s+(?:width|height)=".*?")?\}`)
)

const jpegQuality = 85

// Options controls one image pass.
type Options struct {
	// Dir is the directory processed images are written to.
	Dir string

	// BaseDir is the directory relative reference paths resolve
	// against, normally the output document's directory.
	BaseDir string

	// Optimize enables decode, downscale and re-encode. When false
	// images are copied as-is.
	Optimize  bool
	MaxWidth  int
	MaxHeight int
}

// Result reports the outcome of a pass.
type Result struct {
	Content   string
	Processed int
	Failed    int
	Total     int
}

// Process handles every local image reference in content: the file is
// copied (or optimized) into opts.Dir and the reference rewritten
// relative to opts.BaseDir. Remote URLs pass through untouched. A
// missing or undecodable image counts as failed and keeps its
// reference.
func Process(content string, opts Options) (Result, error) {
	res := Result{}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return res, fmt.Errorf("create images dir: %w", err)
	}

	matches := imageRefRE.FindAllStringSubmatch(content, -1)
	res.Total = len(matches)

	for _, m := range matches {
		alt, ref := m[1], m[2]
		path := strings.TrimSpace(ref)
		if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			continue
		}

		full := path
		if !filepath.IsAbs(full) {
			full = filepath.Join(opts.BaseDir, full)
		}
		if _, err := os.Stat(full); err != nil {
			res.Failed++
			continue
		}

		dst := filepath.Join(opts.Dir, filepath.Base(full))
		if err := placeImage(full, dst, opts); err != nil {
			res.Failed++
			continue
		}

		rel, err := filepath.Rel(opts.BaseDir, dst)
		if err != nil {
			rel = dst
		}
		if !strings.HasPrefix(rel, "./") {
			rel = "./" + rel
		}

		content = strings.ReplaceAll(content,
			"!["+alt+"]("+ref+")",
			"!["+alt+"]("+rel+")")
		res.Processed++
	}

	content = normalizeRefs(content, filepath.Base(opts.Dir))
	content = sizeAttrsRE.ReplaceAllString(content, "${1}")

	res.Content = content
	return res, nil
}

// placeImage writes the image at src to dst, optimizing when enabled.
// Identical paths mean the file is already in place.
func placeImage(src, dst string, opts Options) error {
	if src == dst {
		return nil
	}
	if !opts.Optimize {
		return copyFile(src, dst)
	}
	return optimizeImage(src, dst, opts.MaxWidth, opts.MaxHeight)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// optimizeImage decodes, downscales to fit the bounds preserving
// aspect ratio, and re-encodes by extension.
func optimizeImage(src, dst string, maxWidth, maxHeight int) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxWidth || h > maxHeight {
		ratio := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
		nw, nh := int(float64(w)*ratio), int(float64(h)*ratio)
		scaled := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Over, nil)
		img = scaled
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	switch strings.ToLower(filepath.Ext(dst)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: jpegQuality})
	case ".png":
		err = png.Encode(out, img)
	case ".gif":
		err = gif.Encode(out, img, nil)
	default:
		err = fmt.Errorf("unsupported image format: %s", dst)
	}
	if err != nil {
		return err
	}
	return out.Close()
}

// normalizeRefs points any reference that passes through the images
// directory at its ./dir/... form, catching paths the per-image loop
// did not rewrite.
func normalizeRefs(content, dirBase string) string {
	marker := dirBase + "/"
	prefix := "./" + marker
	return imageRefRE.ReplaceAllStringFunc(content, func(ref string) string {
		m := imageRefRE.FindStringSubmatch(ref)
		path := m[2]
		if strings.HasPrefix(path, prefix) {
			return ref
		}
		i := strings.Index(path, marker)
		for i > 0 && path[i-1] != '/' {
			next := strings.Index(path[i+1:], marker)
			if next < 0 {
				i = -1
				break
			}
			i += 1 + next
		}
		if i < 0 {
			return ref
		}
		return "![" + m[1] + "](" + prefix + path[i+len(marker):] + ")"
	})
}
