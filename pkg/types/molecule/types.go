// Package molecule defines the data transfer objects shared by every layer of
// molview: the submitted input, the records returned by the remote chemistry
// service and the merged analysis result.  No orchestration logic lives here,
// only plain data types and their local invariants.
package molecule

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/molview/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// InputSpec: what the user submitted
// ─────────────────────────────────────────────────────────────────────────────

// InputKind discriminates the InputSpec variants.
type InputKind string

const (
	// InputSMILES is a SMILES string typed by the user.
	InputSMILES InputKind = "smiles"

	// InputFile is an uploaded structure file.
	InputFile InputKind = "file"
)

// InputSpec is a tagged union.  For InputSMILES only Text is populated; for
// InputFile only Name, Extension and Content are.
type InputSpec struct {
	Kind InputKind `json:"kind"`

	// Text is the SMILES string (InputSMILES only).
	Text string `json:"text,omitempty"`

	// Name is the original file name including its extension (InputFile only).
	Name string `json:"name,omitempty"`

	// Extension is the lower-cased suffix after the final dot, without the dot.
	Extension string `json:"extension,omitempty"`

	// Content is the raw file text, kept bit-exact.
	Content string `json:"content,omitempty"`
}

// NewSMILESInput builds an InputSpec for a SMILES string.
func NewSMILESInput(text string) InputSpec {
	return InputSpec{Kind: InputSMILES, Text: text}
}

// NewFileInput builds an InputSpec for an uploaded file, deriving Extension
// from name.
func NewFileInput(name, content string) InputSpec {
	return InputSpec{Kind: InputFile, Name: name, Extension: FileExtension(name), Content: content}
}

// FileExtension returns the lower-cased suffix after the final dot of name,
// or "" when there is none.
func FileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// Validate enforces the tagged-union invariant.
func (s InputSpec) Validate() error {
	switch s.Kind {
	case InputSMILES:
		if strings.TrimSpace(s.Text) == "" {
			return errors.EmptyInput("Please enter a SMILES string")
		}
		if s.Name != "" || s.Content != "" {
			return errors.Validation("smiles input must not carry file fields")
		}
	case InputFile:
		if s.Name == "" {
			return errors.EmptyInput("Please select a file")
		}
		if s.Text != "" {
			return errors.Validation("file input must not carry a SMILES string")
		}
	default:
		return errors.Validation(fmt.Sprintf("unknown input kind %q", s.Kind))
	}
	return nil
}

// Route is the processing path chosen for an input.
type Route string

const (
	RouteDirectPDB    Route = "direct-pdb"
	RouteRemoteSMILES Route = "remote-smiles"
	RouteUnsupported  Route = "unsupported"
)

// Forcefield names the force field used for conformer optimization.
type Forcefield string

const (
	ForcefieldUFF  Forcefield = "UFF"
	ForcefieldMMFF Forcefield = "MMFF"

	// ForcefieldFile marks a conformer taken verbatim from an uploaded file.
	ForcefieldFile Forcefield = "File"
)

// ParseForcefield accepts UFF or MMFF case-insensitively.
func ParseForcefield(s string) (Forcefield, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(ForcefieldUFF):
		return ForcefieldUFF, nil
	case string(ForcefieldMMFF):
		return ForcefieldMMFF, nil
	default:
		return "", errors.Validation(fmt.Sprintf("unsupported force field %q (want UFF or MMFF)", s))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Remote records
// ─────────────────────────────────────────────────────────────────────────────

// Placeholder values carried by records synthesized locally from a PDB file.
const (
	PlaceholderIdentifier = "N/A"
	PlaceholderFormula    = "Unknown"
)

// MoleculeRecord is the parsed summary of a molecule.  Descriptor values are
// numbers for remotely parsed records; locally synthesized records carry
// provenance strings (source_file, compound_name, file_format) instead.
type MoleculeRecord struct {
	SMILES      string                 `json:"smiles"`
	Formula     string                 `json:"formula"`
	Weight      float64                `json:"weight"`
	InChI       string                 `json:"inchi,omitempty"`
	InChIKey    string                 `json:"inchikey,omitempty"`
	Descriptors map[string]interface{} `json:"descriptors"`
}

// IsZero reports whether the record carries no data at all.
func (m MoleculeRecord) IsZero() bool {
	return m.SMILES == "" && m.Formula == "" && m.Weight == 0 && len(m.Descriptors) == 0
}

// ConformerStatus is the generation status reported with a conformer.
type ConformerStatus string

const (
	ConformerOK    ConformerStatus = "ok"
	ConformerError ConformerStatus = "error"
)

// ConformerRecord holds a 3D structure as PDB text.  PDBBlock is well-formed
// whenever Status is ConformerOK.
type ConformerRecord struct {
	PDBBlock       string          `json:"pdb_block"`
	Status         ConformerStatus `json:"status"`
	ForcefieldUsed string          `json:"forcefield_used,omitempty"`
	AtomCount      int             `json:"atom_count"`
	Has3DCoords    bool            `json:"has_3d_coords"`
	Error          string          `json:"error,omitempty"`
}

// IsZero reports whether the record carries no structure and no status.
func (c ConformerRecord) IsZero() bool {
	return c.PDBBlock == "" && c.Status == ""
}

// AdmetPrediction is one predicted ADMET property.  Value holds a float64 or
// a string.
type AdmetPrediction struct {
	Property   string      `json:"property"`
	Value      interface{} `json:"value"`
	Unit       string      `json:"unit,omitempty"`
	Confidence *float64    `json:"confidence,omitempty"`
}

// UnmarshalJSON accepts "probability" as an alias for "confidence" and
// normalizes numeric values to float64.
func (p *AdmetPrediction) UnmarshalJSON(data []byte) error {
	var aux struct {
		Property    string          `json:"property"`
		Value       json.RawMessage `json:"value"`
		Unit        *string         `json:"unit"`
		Confidence  *float64        `json:"confidence"`
		Probability *float64        `json:"probability"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Property = aux.Property
	p.Unit = ""
	if aux.Unit != nil {
		p.Unit = *aux.Unit
	}
	p.Confidence = aux.Confidence
	if p.Confidence == nil {
		p.Confidence = aux.Probability
	}
	p.Value = nil
	if len(aux.Value) > 0 && string(aux.Value) != "null" {
		var num float64
		var str string
		switch {
		case json.Unmarshal(aux.Value, &num) == nil:
			p.Value = num
		case json.Unmarshal(aux.Value, &str) == nil:
			p.Value = str
		default:
			return fmt.Errorf("admet %q: value must be a number or a string", aux.Property)
		}
	}
	return nil
}

// FormatValue renders Value for display, with the unit appended when known.
func (p AdmetPrediction) FormatValue() string {
	var s string
	switch v := p.Value.(type) {
	case nil:
		s = "-"
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		s = v
	default:
		s = fmt.Sprint(v)
	}
	if p.Unit != "" {
		s += " " + p.Unit
	}
	return s
}

// AgentStatus is the per-agent outcome reported by the legacy analyze payload.
type AgentStatus struct {
	Parser    string `json:"parser,omitempty"`
	Conformer string `json:"conformer,omitempty"`
	Admet     string `json:"admet,omitempty"`
	Render    string `json:"render,omitempty"`
}

// AnalysisResult is the merged outcome of a pipeline run.  Admet is never nil.
type AnalysisResult struct {
	Route       Route             `json:"route"`
	Molecule    MoleculeRecord    `json:"molecule"`
	Conformer   ConformerRecord   `json:"conformer"`
	Admet       []AdmetPrediction `json:"admet"`
	AgentStatus *AgentStatus      `json:"analysis_status,omitempty"`
}

// StructureInfo is what the viewer's info panel shows about a loaded
// structure.
type StructureInfo struct {
	AtomCount      int    `json:"atom_count"`
	ForcefieldUsed string `json:"forcefield_used"`
	Has3DCoords    bool   `json:"has_3d_coords"`
	Status         string `json:"status"`
}

// InfoFromConformer derives viewer panel data from a conformer record.
func InfoFromConformer(c ConformerRecord) StructureInfo {
	return StructureInfo{
		AtomCount:      c.AtomCount,
		ForcefieldUsed: c.ForcefieldUsed,
		Has3DCoords:    c.Has3DCoords,
		Status:         string(c.Status),
	}
}
