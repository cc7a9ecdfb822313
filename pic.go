package xlsxturbo

import (
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/gabriel-vasile/mimetype"
	excelize "github.com/xuri/excelize/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// PicFormat scales a picture. A zero scale keeps the natural size.
type PicFormat struct {
	ScaleWidth  float64 `yaml:"scale_width" validate:"gte=0"`
	ScaleHeight float64 `yaml:"scale_height" validate:"gte=0"`
	AltText     string  `yaml:"alt_text"`
}

// Picture is an image anchored at Cell, read from Path or given as File.
type Picture struct {
	Cell   string    `yaml:"cell"`
	Path   string    `yaml:"path"`
	File   []byte    `yaml:"-"`
	Format PicFormat `yaml:"format"`
}

func NewPicture(cell, path string, format PicFormat) Picture {
	return Picture{
		Cell:   cell,
		Path:   path,
		Format: format,
	}
}

func NewPictureFromBytes(cell string, file []byte, format PicFormat) (Picture, error) {
	if _, err := getPicExtName(mimetype.Detect(file).String()); err != nil {
		return Picture{}, err
	}
	return Picture{
		Cell:   cell,
		File:   file,
		Format: format,
	}, nil
}

func getPicExtName(mime string) (string, error) {
	switch mime {
	case "image/jpeg":
		return ".jpeg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/bmp":
		return ".bmp", nil
	case "image/tiff":
		return ".tiff", nil
	default:
		return "", fmt.Errorf("invalid image type %s: must be png, jpeg, gif, bmp or tiff", mime)
	}
}

func (pic Picture) source() string {
	if pic.Path != "" {
		return pic.Path
	}
	return pic.Cell
}

// load reads the image bytes and sniffs the container type. The content is
// never decoded.
func (pic Picture) load() (*excelize.Picture, error) {
	file := pic.File
	if len(file) == 0 {
		data, err := os.ReadFile(pic.Path)
		if err != nil {
			return nil, &ResourceError{Path: pic.Path, Err: err}
		}
		file = data
	}
	ext, err := getPicExtName(mimetype.Detect(file).String())
	if err != nil {
		return nil, &ResourceError{Path: pic.source(), Err: err}
	}
	scale := func(v float64) float64 {
		if v == 0 {
			return 1
		}
		return v
	}
	return &excelize.Picture{
		Extension: ext,
		File:      file,
		Format: &excelize.GraphicOptions{
			AltText: pic.Format.AltText,
			ScaleX:  scale(pic.Format.ScaleWidth),
			ScaleY:  scale(pic.Format.ScaleHeight),
		},
	}, nil
}
