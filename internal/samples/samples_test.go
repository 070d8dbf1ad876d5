package samples

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/ocr"
)

func TestSlug(t *testing.T) {
	assert.Equal(t, "atm_card_block_replacement", Slug(constants.ATMCardBlock))
	assert.Equal(t, "rtgs_neft_transfer", Slug(constants.RTGSNEFTTransfer))
	assert.Equal(t, "cheque_book_request", Slug(constants.ChequeBookRequest))
}

func TestLines(t *testing.T) {
	lines := Lines(constants.ChequeBookRequest)
	assert.Equal(t, "Bank XYZ - Cheque Book Request Form", lines[0])
	assert.Contains(t, lines, "Account Number: 1234567890")
	assert.Contains(t, lines, "Number of cheque leaves requested: 25")
}

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG(constants.KYCUpdate)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1000, img.Bounds().Dx())
	assert.Equal(t, 1400, img.Bounds().Dy())
}

func TestTextPDF(t *testing.T) {
	data, err := TextPDF([]string{"Reference: a (b) c", "", "Branch: 001"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	info, err := ocr.InspectPDF(data)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Pages)

	text, _, err := ocr.PDFText(data)
	require.NoError(t, err)
	assert.Contains(t, text, "a (b) c")
	assert.Contains(t, text, "Branch: 001")
}

func TestRenderPDF_HasFormText(t *testing.T) {
	data, err := RenderPDF(constants.ChequeBookRequest)
	require.NoError(t, err)
	text, pages, err := ocr.PDFText(data)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	assert.Contains(t, text, "Cheque Book Request")
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteAll(dir, FormatPDF)
	require.NoError(t, err)
	assert.Len(t, paths, len(constants.FormTypes()))
	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err)
		assert.Equal(t, ".pdf", filepath.Ext(p))
	}

	_, err = WriteAll(dir, "gif")
	assert.Error(t, err)
}
