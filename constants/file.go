package constants

import "strings"

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)

// DefaultMaxFileSize matches the upload cap of 10 MiB.
const DefaultMaxFileSize int64 = 10 << 20

// AllowedContentTypes maps each accepted upload type to the extension used for storage.
var AllowedContentTypes = map[string]string{
	ContentTypePDF:  "pdf",
	ContentTypeJPEG: "jpg",
	ContentTypePNG:  "png",
}

// NormalizeContentType drops parameters and lowercases a MIME type.
func NormalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ct == "image/jpg" || ct == "image/pjpeg" {
		return ContentTypeJPEG
	}
	return ct
}

func IsAllowedContentType(ct string) bool {
	_, ok := AllowedContentTypes[NormalizeContentType(ct)]
	return ok
}

// ExtForContentType returns "" for types outside the allowlist.
func ExtForContentType(ct string) string {
	return AllowedContentTypes[NormalizeContentType(ct)]
}

func IsPDF(ct string) bool { return NormalizeContentType(ct) == ContentTypePDF }

func IsImage(ct string) bool {
	ct = NormalizeContentType(ct)
	return ct == ContentTypeJPEG || ct == ContentTypePNG
}
