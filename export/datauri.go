package export

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrNotDataURI is returned for image references that are not base64 data URIs.
var ErrNotDataURI = errors.New("not a base64 data URI")

// DecodeDataURI splits a "data:<mime>;base64,<payload>" reference into its
// media type and decoded bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	if mime == "" {
		mime = "image/png"
	}
	return mime, data, nil
}

// imageExt maps a media type to a file extension and fpdf image type.
func imageExt(mime string) (ext, pdfType string, ok bool) {
	switch strings.ToLower(mime) {
	case "image/png":
		return ".png", "PNG", true
	case "image/jpeg", "image/jpg":
		return ".jpg", "JPG", true
	case "image/gif":
		return ".gif", "GIF", true
	}
	return "", "", false
}
