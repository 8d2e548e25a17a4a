package analysis

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/molecule"
)

func TestResolve_SMILES(t *testing.T) {
	r := NewResolver(0, nil)

	spec, err := r.Resolve(Form{Mode: ModeText, SMILES: "  CCO \n"})
	require.NoError(t, err)
	assert.Equal(t, molecule.NewSMILESInput("CCO"), spec)
}

func TestResolve_DefaultModeIsText(t *testing.T) {
	spec, err := NewResolver(0, nil).Resolve(Form{SMILES: "c1ccccc1"})
	require.NoError(t, err)
	assert.Equal(t, molecule.InputSMILES, spec.Kind)
}

func TestResolve_EmptyInput(t *testing.T) {
	r := NewResolver(0, nil)

	tests := []struct {
		name string
		form Form
	}{
		{"blank smiles", Form{Mode: ModeText, SMILES: "   "}},
		{"no file", Form{Mode: ModeFile}},
		{"file without name", Form{Mode: ModeFile, File: &FileUpload{}}},
		{"text mode ignores file", Form{Mode: ModeText, File: &FileUpload{Name: "a.pdb"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.form)
			assert.True(t, errors.IsCode(err, errors.CodeEmptyInput), "got %v", err)
		})
	}
}

func TestResolve_InvalidSMILESCharacters(t *testing.T) {
	_, err := NewResolver(0, nil).Resolve(Form{Mode: ModeText, SMILES: "CC O"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidSMILES))
	assert.Equal(t, "ValidationError", errors.Category(errors.GetCode(err)))
}

func TestResolve_AcceptsFullSMILESAlphabet(t *testing.T) {
	for _, s := range []string{
		"CC(=O)OC1=CC=CC=C1C(=O)O",
		"C([C@@H]1[C@H]([C@@H]([C@H]([C@H](O1)O)O)O)O)O",
		"[Na+].[Cl-]",
		"F/C=C/F",
		"C#N",
		"c1cc%10ccc1",
	} {
		_, err := NewResolver(0, nil).Resolve(Form{SMILES: s})
		assert.NoError(t, err, s)
	}
}

func TestResolve_File(t *testing.T) {
	r := NewResolver(0, nil)
	content := []byte("HETATM    1  C1  UNL     1       0.000   0.000   0.000  1.00  0.00           C\nEND\n")

	spec, err := r.Resolve(Form{Mode: ModeFile, File: &FileUpload{Name: "Molecule.PDB", Size: int64(len(content)), Content: content}})
	require.NoError(t, err)
	assert.Equal(t, molecule.InputFile, spec.Kind)
	assert.Equal(t, "pdb", spec.Extension)
	assert.Equal(t, string(content), spec.Content)
}

func TestResolve_FileTypeRejected(t *testing.T) {
	_, err := NewResolver(0, nil).Resolve(Form{Mode: ModeFile, File: &FileUpload{Name: "notes.txt", Content: []byte("x")}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeFileTypeInvalid))
}

func TestResolve_FileTooLarge(t *testing.T) {
	r := NewResolver(16, nil)

	_, err := r.Resolve(Form{Mode: ModeFile, File: &FileUpload{Name: "big.pdb", Content: bytes.Repeat([]byte("A"), 17)}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeFileTooLarge))

	_, err = r.Resolve(Form{Mode: ModeFile, File: &FileUpload{Name: "big.pdb", Size: 1 << 30}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeFileTooLarge))

	_, err = r.Resolve(Form{Mode: ModeFile, File: &FileUpload{Name: "ok.pdb", Content: bytes.Repeat([]byte("A"), 16)}})
	assert.NoError(t, err)
}

func TestResolve_DefaultLimitMessage(t *testing.T) {
	_, err := NewResolver(0, nil).Resolve(Form{Mode: ModeFile, File: &FileUpload{Name: "big.sdf", Size: DefaultMaxUploadSize + 1}})
	assert.Equal(t, "File size must be less than 10MB", errors.UserMessage(err))
}

func TestResolve_CustomExtensions(t *testing.T) {
	r := NewResolver(0, []string{".PDB"})

	_, err := r.Resolve(Form{Mode: ModeFile, File: &FileUpload{Name: "a.pdb"}})
	assert.NoError(t, err)
	_, err = r.Resolve(Form{Mode: ModeFile, File: &FileUpload{Name: "a.sdf"}})
	assert.Error(t, err)
}

func TestResolve_UnknownMode(t *testing.T) {
	_, err := NewResolver(0, nil).Resolve(Form{Mode: "voice"})
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}
