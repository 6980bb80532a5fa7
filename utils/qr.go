// utils/qr.go
package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// GenerateApplicationQR renders a QR code pointing at the public
// tracking page for an application number, returned as a base64 data
// URL for embedding in API responses.
func GenerateApplicationQR(applicationNumber string) (string, error) {
	baseURL := os.Getenv("PUBLIC_TRACKING_URL")
	if baseURL == "" {
		baseURL = "https://e-vizza.com/track"
	}
	content := fmt.Sprintf("%s?number=%s", baseURL, applicationNumber)

	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}
	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// GenerateApplicationQRPNG renders the same QR code as raw PNG bytes
// for the image endpoint.
func GenerateApplicationQRPNG(applicationNumber string) ([]byte, error) {
	baseURL := os.Getenv("PUBLIC_TRACKING_URL")
	if baseURL == "" {
		baseURL = "https://e-vizza.com/track"
	}
	content := fmt.Sprintf("%s?number=%s", baseURL, applicationNumber)

	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
