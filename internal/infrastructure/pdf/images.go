package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfcpu emits extracted images as <base>_<page>_<obj>.<ext>; the trailing
// two numbers give us the page ordering back.
var imageNamePattern = regexp.MustCompile(`_(\d+)_(\d+)\.[^.]+$`)

// ImageExtractor pulls every embedded image out of a PDF and stores it under
// the document's asset directory with stable pageNNN_imgMM names, so
// manifest keys stay valid across reruns.
type ImageExtractor struct {
	conf *model.Configuration
}

func NewImageExtractor() *ImageExtractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &ImageExtractor{conf: conf}
}

func (e *ImageExtractor) ExtractImages(ctx context.Context, sourcePath, assetDir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(assetDir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}

	staging, err := os.MkdirTemp(assetDir, ".extract-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := api.ExtractImagesFile(sourcePath, staging, nil, e.conf); err != nil {
		return nil, fmt.Errorf("extract images: %w", err)
	}

	entries, err := os.ReadDir(staging)
	if err != nil {
		return nil, fmt.Errorf("list staged images: %w", err)
	}

	type staged struct {
		name string
		page int
		obj  int
	}
	images := make([]staged, 0, len(entries))
	for i, entry := range entries {
		if entry.IsDir() {
			continue
		}
		img := staged{name: entry.Name(), page: 0, obj: i}
		if m := imageNamePattern.FindStringSubmatch(entry.Name()); m != nil {
			img.page, _ = strconv.Atoi(m[1])
			img.obj, _ = strconv.Atoi(m[2])
		}
		images = append(images, img)
	}
	sort.Slice(images, func(i, j int) bool {
		if images[i].page != images[j].page {
			return images[i].page < images[j].page
		}
		return images[i].obj < images[j].obj
	})

	var written []string
	perPage := make(map[int]int)
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		perPage[img.page]++
		name := fmt.Sprintf("page%03d_img%02d%s", img.page, perPage[img.page], filepath.Ext(img.name))
		if err := os.Rename(filepath.Join(staging, img.name), filepath.Join(assetDir, name)); err != nil {
			return written, fmt.Errorf("place image %s: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}

// PageCount reports the page total, used at upload time to reject empty or
// unparseable PDFs before they enter the pipeline.
func PageCount(sourcePath string) (int, error) {
	count, err := api.PageCountFile(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return count, nil
}
