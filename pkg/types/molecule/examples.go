package molecule

// Example is a curated molecule offered as a starting point.
type Example struct {
	Name        string `json:"name"`
	SMILES      string `json:"smiles"`
	Description string `json:"description"`
}

var examples = []Example{
	{Name: "Aspirin", SMILES: "CC(=O)OC1=CC=CC=C1C(=O)O", Description: "Pain reliever and anti-inflammatory"},
	{Name: "Caffeine", SMILES: "CN1C=NC2=C1C(=O)N(C(=O)N2C)C", Description: "Central nervous system stimulant"},
	{Name: "Ibuprofen", SMILES: "CC(C)CC1=CC=C(C=C1)C(C)C(=O)O", Description: "Nonsteroidal anti-inflammatory drug"},
	{Name: "Ethanol", SMILES: "CCO", Description: "Simple alcohol, commonly used solvent"},
	{Name: "Benzene", SMILES: "c1ccccc1", Description: "Aromatic hydrocarbon, basic benzene ring"},
	{Name: "Glucose", SMILES: "C([C@@H]1[C@H]([C@@H]([C@H]([C@H](O1)O)O)O)O)O", Description: "Simple sugar, primary energy source"},
	{Name: "Paracetamol", SMILES: "CC(=O)NC1=CC=C(C=C1)O", Description: "Acetaminophen, pain reliever"},
	{Name: "Morphine", SMILES: "CN1CC[C@]23C4=C5C=CC(O)=C4O[C@H]2[C@@H](O)C=C[C@H]3[C@H]1C5", Description: "Opioid pain medication"},
}

// Examples returns a copy of the curated example list.
func Examples() []Example {
	out := make([]Example, len(examples))
	copy(out, examples)
	return out
}

// LookupExample finds an example by case-sensitive name.
func LookupExample(name string) (Example, bool) {
	for _, e := range examples {
		if e.Name == name {
			return e, true
		}
	}
	return Example{}, false
}
