// Package qr renders tracking QR codes for printed receipts. Scanning the
// code opens the customer-facing tracking page for that order.
package qr

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

type QRGenerator struct {
	baseURL string
}

func NewQRGenerator(baseURL string) *QRGenerator {
	return &QRGenerator{baseURL: strings.TrimRight(baseURL, "/")}
}

// GenerateTrackingQR returns a 256x256 PNG encoding the tracking URL for the
// given order.
func (q *QRGenerator) GenerateTrackingQR(orderID string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", q.baseURL, orderID)
	return qrcode.Encode(url, qrcode.Medium, 256)
}
