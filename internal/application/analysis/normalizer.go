package analysis

import (
	"github.com/turtacn/molview/pkg/client"
	"github.com/turtacn/molview/pkg/types/molecule"
)

// RawOutputs are the step outputs of one run.  Analysis is nil on the
// direct-pdb route.
type RawOutputs struct {
	Molecule  molecule.MoleculeRecord
	Conformer molecule.ConformerRecord
	Analysis  *client.AnalyzeResponse
}

// Normalize merges step outputs into the canonical result.  When the analysis
// response carries its own molecule or conformer those win over the earlier
// steps.  A zero atom count is recomputed from the structure text.
func Normalize(route molecule.Route, raw RawOutputs) molecule.AnalysisResult {
	res := molecule.AnalysisResult{
		Route:     route,
		Molecule:  raw.Molecule,
		Conformer: raw.Conformer,
		Admet:     []molecule.AdmetPrediction{},
	}

	if a := raw.Analysis; a != nil {
		if a.Molecule != nil && !a.Molecule.IsZero() {
			res.Molecule = *a.Molecule
		}
		switch {
		case a.Conformer != nil && !a.Conformer.IsZero():
			res.Conformer = *a.Conformer
		case a.PDBBlock != "":
			res.Conformer = legacyConformer(a.PDBBlock, raw.Conformer)
		}
		if len(a.Admet) > 0 {
			res.Admet = append(res.Admet, a.Admet...)
		}
		if a.AnalysisStatus != nil {
			st := *a.AnalysisStatus
			res.AgentStatus = &st
		}
	}

	if res.Molecule.Descriptors == nil {
		res.Molecule.Descriptors = map[string]interface{}{}
	}
	if res.Conformer.AtomCount == 0 && res.Conformer.PDBBlock != "" {
		res.Conformer.AtomCount = CountAtomRecords(res.Conformer.PDBBlock)
	}
	return res
}

// legacyConformer builds a conformer from an analyze payload that carried
// only a bare structure block, keeping metadata of the conformer step.
func legacyConformer(block string, prev molecule.ConformerRecord) molecule.ConformerRecord {
	c := molecule.ConformerRecord{
		PDBBlock:       block,
		Status:         molecule.ConformerOK,
		ForcefieldUsed: prev.ForcefieldUsed,
		Has3DCoords:    true,
	}
	if c.ForcefieldUsed == "" {
		c.ForcefieldUsed = string(molecule.ForcefieldUFF)
	}
	return c
}
