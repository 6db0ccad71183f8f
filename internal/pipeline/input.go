package pipeline

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ironsheep/labelvision/internal/imaging"
)

// LoadImage reads an image file. The content type comes from the file
// extension, or from the file's leading bytes when the extension is unknown.
func LoadImage(path string) (Image, error) {
	data, err := imaging.ReadFile(path)
	if err != nil {
		return Image{}, err
	}
	return Image{Data: data, ContentType: ContentType(path, data)}, nil
}

// ContentType guesses the MIME type of an image file.
func ContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
