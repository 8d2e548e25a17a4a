// Package analysis sequences a molecule submission through classification,
// the remote chemistry service (or local PDB derivation) and result
// normalization, tracking pipeline progress for presentation.
package analysis

import (
	"fmt"
	"strings"

	"github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/molecule"
)

// InputMode is the active input tab of the submission form.
type InputMode string

const (
	ModeText InputMode = "text"
	ModeFile InputMode = "file"
)

// DefaultMaxUploadSize is the largest accepted file, in bytes.
const DefaultMaxUploadSize int64 = 10 << 20

// DefaultAllowedExtensions are the structure file types offered for upload.
var DefaultAllowedExtensions = []string{"sdf", "pdb", "mol", "xyz"}

// FileUpload is a selected file.  Size is the declared size and may exceed
// len(Content) when the caller only read a prefix.
type FileUpload struct {
	Name    string
	Size    int64
	Content []byte
}

// Form is what the user filled in.  Only the field of the active mode is read.
type Form struct {
	Mode   InputMode
	SMILES string
	File   *FileUpload
}

// Resolver turns a Form into an InputSpec, enforcing upload limits.
type Resolver struct {
	maxSize int64
	allowed map[string]struct{}
}

// NewResolver builds a Resolver.  Non-positive maxSize and empty allowed fall
// back to the defaults.
func NewResolver(maxSize int64, allowed []string) *Resolver {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	if len(allowed) == 0 {
		allowed = DefaultAllowedExtensions
	}
	r := &Resolver{maxSize: maxSize, allowed: make(map[string]struct{}, len(allowed))}
	for _, ext := range allowed {
		r.allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return r
}

// Resolve reads the active mode of f.  It fails with EmptyInput when nothing
// was entered and with a validation error when the input breaks a local
// constraint.  Nothing is sent anywhere.
func (r *Resolver) Resolve(f Form) (molecule.InputSpec, error) {
	switch f.Mode {
	case ModeFile:
		return r.resolveFile(f.File)
	case ModeText, "":
		return resolveSMILES(f.SMILES)
	default:
		return molecule.InputSpec{}, errors.Validation(fmt.Sprintf("unknown input mode %q", f.Mode))
	}
}

// MaxSize is the upload limit in bytes.
func (r *Resolver) MaxSize() int64 {
	return r.maxSize
}

// FileTooLarge is the error for an upload over maxSize bytes.
func FileTooLarge(maxSize int64) *errors.AppError {
	return errors.New(errors.ErrCodeFileTooLarge, fmt.Sprintf("File size must be less than %s", humanSize(maxSize)))
}

func resolveSMILES(raw string) (molecule.InputSpec, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return molecule.InputSpec{}, errors.EmptyInput("Please enter a SMILES string")
	}
	if bad, ok := firstInvalidSMILESRune(text); ok {
		return molecule.InputSpec{}, errors.New(errors.ErrCodeInvalidSMILES, "SMILES contains invalid characters").
			WithDetail(fmt.Sprintf("unexpected %q", bad))
	}
	return molecule.NewSMILESInput(text), nil
}

func (r *Resolver) resolveFile(file *FileUpload) (molecule.InputSpec, error) {
	if file == nil || file.Name == "" {
		return molecule.InputSpec{}, errors.EmptyInput("Please select a file")
	}
	ext := molecule.FileExtension(file.Name)
	if _, ok := r.allowed[ext]; !ok {
		return molecule.InputSpec{}, errors.New(errors.ErrCodeFileTypeInvalid, "Invalid file type. Please upload SDF, PDB, MOL, or XYZ files.").
			WithDetail(file.Name)
	}
	size := file.Size
	if n := int64(len(file.Content)); n > size {
		size = n
	}
	if size > r.maxSize {
		return molecule.InputSpec{}, FileTooLarge(r.maxSize).WithDetail(fmt.Sprintf("%s is %d bytes", file.Name, size))
	}
	return molecule.NewFileInput(file.Name, string(file.Content)), nil
}

// firstInvalidSMILESRune returns the first rune that cannot appear in a
// SMILES string.
func firstInvalidSMILESRune(s string) (rune, bool) {
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.ContainsRune("()[]=#$:/\\@+-%.*~", c):
		default:
			return c, true
		}
	}
	return 0, false
}

func humanSize(n int64) string {
	const mib = 1 << 20
	if n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
