package service

import (
	"fmt"
	"image"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"bookmarket/pkg/customerror"
	"bookmarket/pkg/listing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/image/webp"
)

const (
	maxImageDimension = 1600
	jpegQuality       = 80
)

func validateListingImages(files []*multipart.FileHeader) error {
	if len(files) < 1 || len(files) > listing.MaxImages {
		return customerror.ErrInvalidImages
	}
	for _, file := range files {
		if file.Size > listing.MaxImageSize {
			return customerror.ErrInvalidImages
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
			return customerror.ErrInvalidImages
		}
	}
	return nil
}

// saveCompressedImage decodes the upload, bounds it to
// maxImageDimension and writes it out as JPEG. Returns the path of the
// stored file.
func saveCompressedImage(file *multipart.FileHeader, dir string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	decoded, err := decodeUpload(file.Filename, src)
	if err != nil {
		return "", err
	}
	resized := imaging.Fit(decoded, maxImageDimension, maxImageDimension, imaging.Lanczos)

	newFilename := fmt.Sprintf("%s_%d.jpg", uuid.New().String(), time.Now().Unix())
	fullPath := filepath.Join(dir, newFilename)
	err = imaging.Save(resized, fullPath, imaging.JPEGQuality(jpegQuality))
	if err != nil {
		return "", err
	}
	return fullPath, nil
}

// imaging has no webp support, so webp uploads decode separately.
func decodeUpload(filename string, src multipart.File) (image.Image, error) {
	if strings.ToLower(filepath.Ext(filename)) == ".webp" {
		return webp.Decode(src)
	}
	return imaging.Decode(src)
}
