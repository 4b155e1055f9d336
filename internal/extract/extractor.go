// Package extract turns stored artifact content into text. Plain-text-like
// blobs are decoded directly; PDFs and images go through the multimodal
// inference service. Extraction failures degrade to inline placeholders so a
// larger aggregation still completes; only a provider limit condition aborts.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jonathan/talent-pipeline/internal/llm"
	"github.com/jonathan/talent-pipeline/internal/storage"
)

const (
	pdfInstruction   = "Extract all text content from this document. Return only the extracted text, preserving structure where possible."
	imageInstruction = "Describe the content of this image in detail, transcribing any visible text."
)

// textLikeSuffixes are file name suffixes treated as plain text regardless of
// the declared media type.
var textLikeSuffixes = map[string]bool{
	".md":   true,
	".txt":  true,
	".json": true,
	".csv":  true,
}

// imageMediaTypes are the image formats the inference service accepts.
var imageMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// FileTooLargeError indicates a file exceeded the inference service's input
// limits. Unlike other extraction failures it names the offending file and
// must abort the whole operation.
type FileTooLargeError struct {
	FileName string
	Cause    error
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %q is too large for content extraction: %v", e.FileName, e.Cause)
}

func (e *FileTooLargeError) Unwrap() error {
	return e.Cause
}

// IsTextLike reports whether content can be decoded directly as text.
func IsTextLike(mediaType, fileName string) bool {
	if strings.HasPrefix(mediaType, "text/") || mediaType == "application/json" {
		return true
	}
	return textLikeSuffixes[strings.ToLower(filepath.Ext(fileName))]
}

// IsImage reports whether the media type is a supported image format.
func IsImage(mediaType string) bool {
	return imageMediaTypes[mediaType]
}

// Extractor dispatches content extraction by media type.
type Extractor struct {
	fetcher storage.Fetcher
	client  llm.Client
}

// New creates an Extractor.
func New(fetcher storage.Fetcher, client llm.Client) *Extractor {
	return &Extractor{fetcher: fetcher, client: client}
}

// Extract returns the text content of a stored blob. It never returns an
// error for ordinary failures; those come back as bracketed placeholders.
// The only error it propagates is FileTooLargeError.
func (e *Extractor) Extract(ctx context.Context, blobURL, mediaType, fileName string) (string, error) {
	switch {
	case IsTextLike(mediaType, fileName):
		data, err := e.fetcher.Fetch(ctx, blobURL)
		if err != nil {
			return fmt.Sprintf("[could not load %s: %v]", fileName, err), nil
		}
		return DecodeText(data, mediaType), nil

	case mediaType == "application/pdf":
		data, err := e.fetcher.Fetch(ctx, blobURL)
		if err != nil {
			return fmt.Sprintf("[could not load %s: %v]", fileName, err), nil
		}
		text, err := e.client.Generate(ctx, &llm.Request{
			Parts: []llm.Part{
				llm.DocumentPart(mediaType, data),
				llm.TextPart(pdfInstruction),
			},
			Tier: llm.TierLite,
		})
		if err != nil {
			var limitErr *llm.LimitError
			if errors.As(err, &limitErr) {
				return "", &FileTooLargeError{FileName: fileName, Cause: err}
			}
			return fmt.Sprintf("[extraction failed for %s: %v]", fileName, err), nil
		}
		return text, nil

	case IsImage(mediaType):
		data, err := e.fetcher.Fetch(ctx, blobURL)
		if err != nil {
			return fmt.Sprintf("[could not load %s: %v]", fileName, err), nil
		}
		// Images never abort the caller, even on limit errors.
		text, err := e.client.Generate(ctx, &llm.Request{
			Parts: []llm.Part{
				llm.ImagePart(mediaType, data),
				llm.TextPart(imageInstruction),
			},
			Tier: llm.TierLite,
		})
		if err != nil {
			return fmt.Sprintf("[description failed for %s: %v]", fileName, err), nil
		}
		return text, nil

	default:
		return fmt.Sprintf("[no text extraction available for type %s]", mediaType), nil
	}
}
