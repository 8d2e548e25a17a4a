package analysis

import (
	"path/filepath"
	"strings"

	"github.com/turtacn/molview/pkg/types/molecule"
)

// CountAtomRecords returns the number of ATOM and HETATM lines in a PDB
// block.
func CountAtomRecords(block string) int {
	n := 0
	for _, line := range strings.Split(block, "\n") {
		if strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM") {
			n++
		}
	}
	return n
}

// compoundName extracts the MOLECULE field of the first COMPND record that
// carries one.
func compoundName(block string) (string, bool) {
	for _, line := range strings.Split(block, "\n") {
		if !strings.HasPrefix(line, "COMPND") {
			continue
		}
		idx := strings.Index(line, "MOLECULE:")
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(line[idx+len("MOLECULE:"):])
		name = strings.TrimSpace(strings.TrimSuffix(name, ";"))
		if name != "" {
			return name, true
		}
	}
	return "", false
}

// DerivePDB synthesizes records for an uploaded PDB file.  Chemistry fields
// are placeholders; the file content is the conformer verbatim.
func DerivePDB(fileName, content string) (molecule.MoleculeRecord, molecule.ConformerRecord) {
	name, ok := compoundName(content)
	if !ok {
		base := filepath.Base(fileName)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	mol := molecule.MoleculeRecord{
		SMILES:   molecule.PlaceholderIdentifier,
		Formula:  molecule.PlaceholderFormula,
		Weight:   0,
		InChI:    molecule.PlaceholderIdentifier,
		InChIKey: molecule.PlaceholderIdentifier,
		Descriptors: map[string]interface{}{
			"source_file":   fileName,
			"compound_name": name,
			"file_format":   "PDB",
		},
	}
	conf := molecule.ConformerRecord{
		PDBBlock:       content,
		Status:         molecule.ConformerOK,
		ForcefieldUsed: string(molecule.ForcefieldFile),
		AtomCount:      CountAtomRecords(content),
		Has3DCoords:    true,
	}
	return mol, conf
}
