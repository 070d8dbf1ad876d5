// Package samples renders synthetic banking forms for demos and end-to-end checks.
package samples

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/forms-intake/constants"
)

const (
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// common fields rendered on every sample, in order
var commonFields = [][2]string{
	{"Customer Name", "John Doe"},
	{"Account Number", "1234567890"},
	{"Email", "john.doe@example.com"},
	{"Mobile", "+91-9876543210"},
	{"Branch Code", "BR001"},
	{"Address", "123 Main Street, Cityville"},
}

var extraLines = map[constants.FormType][]string{
	constants.ChequeBookRequest: {
		"Number of cheque leaves requested: 25",
		"Delivery Option: Collect at Branch",
	},
	constants.ATMCardBlock: {
		"ATM Card Number: 5555 6666 7777 8888",
		"Reason: Lost card",
		"Request: Block existing card and issue replacement",
	},
	constants.AddressChangeRequest: {
		"Old Address: 45 Old Street, Old City",
		"New Address: 789 New Avenue, New City",
	},
	constants.RTGSNEFTTransfer: {
		"Beneficiary Name: Jane Smith",
		"Beneficiary Account: 9876543210",
		"IFSC Code: XYZB0000123",
		"Amount: 25,000 INR",
		"Transfer Type: NEFT",
	},
	constants.KYCUpdate: {
		"Document Type: PAN Card",
		"Document Number: ABCDE1234F",
		"KYC Status: Update existing details",
	},
	constants.LockerAccessSurrender: {
		"Locker Number: L-123",
		"Branch Locker Section: A",
		"Request Type: Surrender",
	},
	constants.AccountOpening: {
		"Account Type: Savings",
		"Initial Deposit: 10,000 INR",
	},
}

// Lines is the text content of the sample for ft: title, common fields, then form specifics.
func Lines(ft constants.FormType) []string {
	out := []string{fmt.Sprintf("Bank XYZ - %s Form", ft), ""}
	for _, kv := range commonFields {
		out = append(out, kv[0]+": "+kv[1])
	}
	out = append(out, "")
	out = append(out, extraLines[ft]...)
	return out
}

// Slug turns a label into a file name stem ("ATM Card Block/Replacement" -> "atm_card_block_replacement").
func Slug(ft constants.FormType) string {
	r := strings.NewReplacer("/", "_", " ", "_", "-", "_")
	s := r.Replace(strings.ToLower(string(ft)))
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// RenderPNG draws the sample on a white page. Text is rasterized with the basic 7x13 face and
// scaled up so OCR engines can read it.
func RenderPNG(ft constants.FormType) ([]byte, error) {
	const (
		width, height = 500, 700
		margin        = 40
		lineHeight    = 22
		scale         = 2
	)
	src := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(src, src.Bounds(), image.White, image.Point{}, xdraw.Src)

	d := &font.Drawer{Dst: src, Src: image.NewUniform(color.Black), Face: basicfont.Face7x13}
	y := margin
	for i, line := range Lines(ft) {
		d.Dot = fixed.P(margin, y)
		d.DrawString(line)
		if i == 0 {
			// rule under the title
			for x := margin; x < width-margin; x++ {
				src.Set(x, y+6, color.Black)
			}
		}
		y += lineHeight
	}

	dst := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF writes the sample as a one-page PDF with a real text layer.
func RenderPDF(ft constants.FormType) ([]byte, error) {
	return TextPDF(Lines(ft))
}

// page description consumed by pdfcpu's create command
type pdfLayout struct {
	Paper  string             `json:"paper"`
	Origin string             `json:"origin"`
	Pages  map[string]pdfPage `json:"pages"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfContent struct {
	Text []pdfText `json:"text,omitempty"`
}

type pdfText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  pdfFont    `json:"font"`
}

type pdfFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// TextPDF renders lines top to bottom in Helvetica on a single A4 page. Blank lines only
// advance the cursor.
func TextPDF(lines []string) ([]byte, error) {
	const (
		left, top = 72.0, 770.0
		leading   = 16.0
	)
	var content pdfContent
	y := top
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			content.Text = append(content.Text, pdfText{
				Value: l,
				Pos:   [2]float64{left, y},
				Font:  pdfFont{Name: "Helvetica", Size: 12},
			})
		}
		y -= leading
	}
	layout, err := json.Marshal(pdfLayout{
		Paper:  "A4P",
		Origin: "LowerLeft",
		Pages:  map[string]pdfPage{"1": {Content: content}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode pdf layout: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	var buf bytes.Buffer
	if err := api.Create(nil, bytes.NewReader(layout), &buf, conf); err != nil {
		return nil, fmt.Errorf("create pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteAll renders one sample per form type into dir and returns the written paths.
func WriteAll(dir, format string) ([]string, error) {
	if format != FormatPNG && format != FormatPDF {
		return nil, fmt.Errorf("unsupported sample format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for _, ft := range constants.FormTypes() {
		var (
			data []byte
			err  error
		)
		if format == FormatPDF {
			data, err = RenderPDF(ft)
		} else {
			data, err = RenderPNG(ft)
		}
		if err != nil {
			return paths, fmt.Errorf("%s: %w", ft, err)
		}
		p := filepath.Join(dir, Slug(ft)+"."+format)
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
