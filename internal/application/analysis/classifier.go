package analysis

import (
	"strings"

	"github.com/turtacn/molview/pkg/types/molecule"
)

// Classification is the processing route chosen for an input.
type Classification struct {
	Route     molecule.Route `json:"route"`
	Extension string         `json:"extension,omitempty"`

	// Label names the format in user-facing messages.
	Label string `json:"label"`
}

var formatLabels = map[string]string{
	"pdb": "PDB",
	"sdf": "SDF",
	"mol": "MOL",
	"xyz": "XYZ",
}

const genericFormatLabel = "this file type"

// Classify decides how spec is processed.  SMILES always goes to the remote
// service; PDB files already hold 3D coordinates and are used as-is; every
// other file kind is unsupported.  Classify never fails.
func Classify(spec molecule.InputSpec) Classification {
	if spec.Kind != molecule.InputFile {
		return Classification{Route: molecule.RouteRemoteSMILES, Label: "SMILES"}
	}
	ext := spec.Extension
	if ext == "" {
		ext = molecule.FileExtension(spec.Name)
	}
	ext = strings.ToLower(ext)

	label, known := formatLabels[ext]
	if !known {
		label = genericFormatLabel
	}
	route := molecule.RouteUnsupported
	if ext == "pdb" {
		route = molecule.RouteDirectPDB
	}
	return Classification{Route: route, Extension: ext, Label: label}
}

// UnsupportedMessage is the capability message shown for a rejected format.
func (c Classification) UnsupportedMessage() string {
	if c.Label == genericFormatLabel {
		return "This file type is not supported. Please upload a PDB file or enter a SMILES string."
	}
	return c.Label + " files are not supported yet. Please upload a PDB file or enter a SMILES string."
}
