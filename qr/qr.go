package qr

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/kysee/zkk/errs"
	"github.com/skip2/go-qrcode"
)

const (
	DefaultOutput = "zkp_qr.svg"
	DefaultLevel  = "M"

	// ModuleSize is the edge length, in SVG user units, of one QR module.
	ModuleSize = 8
)

// byte-mode capacity of a version 40 symbol
var capacity = map[qrcode.RecoveryLevel]int{
	qrcode.Low:     2953,
	qrcode.Medium:  2331,
	qrcode.High:    1663,
	qrcode.Highest: 1273,
}

// ParseLevel accepts the ISO letters (L, M, Q, H) or go-qrcode's names.
func ParseLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToUpper(s) {
	case "L", "LOW":
		return qrcode.Low, nil
	case "", "M", "MEDIUM":
		return qrcode.Medium, nil
	case "Q", "HIGH":
		return qrcode.High, nil
	case "H", "HIGHEST":
		return qrcode.Highest, nil
	}
	return 0, fmt.Errorf("unknown QR error correction level: %s", s)
}

// Capacity is the largest payload, in bytes, a symbol at level can carry.
func Capacity(level qrcode.RecoveryLevel) int {
	return capacity[level]
}

type Symbol struct {
	payload string
	code    *qrcode.QRCode
}

// New builds the QR symbol for payload. A payload that does not fit is an
// error; it is never truncated.
func New(payload string, level qrcode.RecoveryLevel) (*Symbol, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", errs.ErrEncodingFailed)
	}
	limit, ok := capacity[level]
	if !ok {
		return nil, fmt.Errorf("%w: unknown error correction level %d", errs.ErrEncodingFailed, level)
	}
	if len(payload) > limit {
		return nil, fmt.Errorf("%w: payload is %d bytes, QR capacity is %d", errs.ErrEncodingFailed, len(payload), limit)
	}
	code, err := qrcode.New(payload, level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrEncodingFailed, err)
	}
	return &Symbol{payload: payload, code: code}, nil
}

func (s *Symbol) Payload() string {
	return s.payload
}

// Version is the QR version (1..40) chosen for the payload.
func (s *Symbol) Version() int {
	return s.code.VersionNumber
}

// Terminal renders the symbol with half-block characters, two modules per line.
func (s *Symbol) Terminal() string {
	return s.code.ToSmallString(false)
}

// SVG renders the symbol, quiet zone included. Dark modules are merged into
// one rect per horizontal run.
func (s *Symbol) SVG() []byte {
	bitmap := s.code.Bitmap()
	size := len(bitmap) * ModuleSize

	buf := bytes.NewBuffer(nil)
	canvas := svg.New(buf)
	canvas.Start(size, size)
	canvas.Rect(0, 0, size, size, "fill:white")
	for y, row := range bitmap {
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			run := 1
			for x+run < len(row) && row[x+run] {
				run++
			}
			canvas.Rect(x*ModuleSize, y*ModuleSize, run*ModuleSize, ModuleSize, "fill:black")
			x += run
		}
	}
	canvas.End()
	return buf.Bytes()
}

// WriteSVG writes the symbol to path. On failure no partial file is left behind.
func (s *Symbol) WriteSVG(path string) (err error) {
	bz := s.SVG()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrFileWriteFailed, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", errs.ErrFileWriteFailed, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if _, err = f.Write(bz); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrFileWriteFailed, err)
	}
	return nil
}
