package document

import "fmt"

// UnsupportedFileTypeError is returned when a file's extension is not one
// the parser knows how to convert.
type UnsupportedFileTypeError struct {
	Ext string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("document: unsupported file type %q (supported: .txt, .md, .html, .htm)", e.Ext)
}

// ParsingError is returned when a supported file fails to convert.
type ParsingError struct {
	Path string
	Err  error
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("document: parse %s: %v", e.Path, e.Err)
}

func (e *ParsingError) Unwrap() error { return e.Err }
