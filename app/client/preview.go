package client

import (
	"bytes"
	"encoding/base64"

	"github.com/disintegration/imaging"
)

// PreviewSize bounds the local preview thumbnail.
const PreviewSize = 320

// Preview renders data as a PNG thumbnail data URI without uploading it.
func Preview(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	thumb := imaging.Fit(img, PreviewSize, PreviewSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
