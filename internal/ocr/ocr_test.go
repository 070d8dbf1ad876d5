package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/llm"
	"github.com/joseph-ayodele/forms-intake/internal/samples"
)

type call struct {
	name string
	args []string
}

// stubRunner answers tesseract with a fixed transcript and fakes pdftoppm by writing page files.
type stubRunner struct {
	calls   []call
	out     string
	err     error
	ppPages int
}

func (s *stubRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, call{name: name, args: args})
	if s.err != nil {
		return nil, []byte("boom"), s.err
	}
	if name == "pdftoppm" {
		prefix := args[len(args)-1]
		for i := 1; i <= s.ppPages; i++ {
			_ = os.WriteFile(prefix+"-"+string(rune('0'+i))+".png", []byte("png"), 0o600)
		}
		return nil, nil, nil
	}
	// the image path must exist while tesseract runs
	if _, err := os.Stat(args[0]); err != nil {
		return nil, nil, err
	}
	return []byte(s.out), nil, nil
}

func TestNormalize(t *testing.T) {
	in := "Name:\tJane   Doe  \r\n-----\r\n\r\n\r\n\r\nAccount: 0123\f"
	assert.Equal(t, "Name: Jane Doe\n\nAccount: 0123", Normalize(in))
	assert.Equal(t, "", Normalize(""))
}

func TestInspectPDF(t *testing.T) {
	data, err := samples.TextPDF([]string{"hello"})
	require.NoError(t, err)
	info, err := InspectPDF(data)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Pages)
	assert.False(t, info.Encrypted)

	_, err = InspectPDF([]byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestPDFText(t *testing.T) {
	text, pages, err := PDFText(renderPDF(t, constants.ChequeBookRequest))
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	assert.Contains(t, text, "Cheque Book Request")
	assert.Contains(t, text, "1234567890")
}

func TestTesseract_Image(t *testing.T) {
	r := &stubRunner{out: "Customer Name: Jane\n\n\n\nAccount Number: 42\n"}
	tess := NewTesseract(Config{TesseractLang: "eng", TessdataDir: "/tess", TempDir: t.TempDir()}, r, nil)

	res, err := tess.ExtractText(context.Background(), llm.Document{Name: "a.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, llm.MethodTesseract, res.Method)
	assert.Equal(t, "Customer Name: Jane\n\nAccount Number: 42", res.Text)

	require.Len(t, r.calls, 1)
	assert.Equal(t, "tesseract", r.calls[0].name)
	assert.Equal(t, ".png", filepath.Ext(r.calls[0].args[0]))
	assert.Equal(t, []string{"stdout", "-l", "eng", "--tessdata-dir", "/tess"}, r.calls[0].args[1:])
}

func TestTesseract_EmptyOutputIsNotSuccess(t *testing.T) {
	tess := NewTesseract(Config{TempDir: t.TempDir()}, &stubRunner{out: "  \n"}, nil)
	res, err := tess.ExtractText(context.Background(), llm.Document{ContentType: "image/jpeg", Data: []byte("jpg")})
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestTesseract_RunnerError(t *testing.T) {
	tess := NewTesseract(Config{TempDir: t.TempDir()}, &stubRunner{err: errors.New("exit 1")}, nil)
	_, err := tess.ExtractText(context.Background(), llm.Document{ContentType: "image/png", Data: []byte("png")})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "tesseract"))
}

func TestTesseract_PDFWithTextLayerSkipsOCR(t *testing.T) {
	r := &stubRunner{}
	tess := NewTesseract(Config{TempDir: t.TempDir()}, r, nil)
	res, err := tess.ExtractText(context.Background(), llm.Document{
		ContentType: constants.ContentTypePDF,
		Data:        renderPDF(t, constants.KYCUpdate),
	})
	require.NoError(t, err)
	assert.Equal(t, llm.MethodPDFText, res.Method)
	assert.Contains(t, res.Text, "ABCDE1234F")
	assert.Empty(t, r.calls)
}

func TestTesseract_ScannedPDFIsRasterized(t *testing.T) {
	r := &stubRunner{out: "page text", ppPages: 2}
	tess := NewTesseract(Config{TempDir: t.TempDir(), DPI: 200}, r, nil)

	// a PDF with an empty page has no text layer
	blank, err := samples.TextPDF(nil)
	require.NoError(t, err)
	res, err := tess.ExtractText(context.Background(), llm.Document{
		ContentType: constants.ContentTypePDF,
		Data:        blank,
	})
	require.NoError(t, err)
	assert.Equal(t, llm.MethodTesseract, res.Method)
	assert.Equal(t, "page text\n\npage text", res.Text)
	require.Len(t, r.calls, 3)
	assert.Equal(t, "pdftoppm", r.calls[0].name)
	assert.Equal(t, []string{"-r", "200", "-png"}, r.calls[0].args[:3])
}

func TestTesseract_UnsupportedType(t *testing.T) {
	tess := NewTesseract(Config{}, &stubRunner{}, nil)
	_, err := tess.ExtractText(context.Background(), llm.Document{ContentType: "text/plain"})
	assert.Error(t, err)
}

func renderPDF(t *testing.T, ft constants.FormType) []byte {
	t.Helper()
	data, err := samples.RenderPDF(ft)
	require.NoError(t, err)
	return data
}
