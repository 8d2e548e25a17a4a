package client

import (
	"context"
	"strings"

	"github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/molecule"
)

// Fallback messages used when the service fails without saying why.
const (
	MsgParseFailed     = "Failed to parse SMILES"
	MsgConformerFailed = "Failed to generate 3D conformer"
	MsgAnalyzeFailed   = "Molecular analysis failed"
	MsgAdmetFailed     = "ADMET prediction failed"
	MsgHealthFailed    = "Analysis service is unreachable"
)

type smilesRequest struct {
	SMILES string `json:"smiles"`
}

type conformerRequest struct {
	SMILES     string `json:"smiles"`
	Forcefield string `json:"forcefield"`
}

// AnalyzeResponse is the payload of POST /api/analyze.  Molecule and
// Conformer are present in the structured form; the legacy form carries the
// structure as a bare PDBBlock with per-agent AnalysisStatus.
type AnalyzeResponse struct {
	Molecule       *molecule.MoleculeRecord   `json:"molecule,omitempty"`
	Conformer      *molecule.ConformerRecord  `json:"conformer,omitempty"`
	PDBBlock       string                     `json:"pdb_block,omitempty"`
	Admet          []molecule.AdmetPrediction `json:"admet"`
	AnalysisStatus *molecule.AgentStatus      `json:"analysis_status,omitempty"`
}

// AdmetResponse is the payload of POST /api/admet.
type AdmetResponse struct {
	Predictions []molecule.AdmetPrediction `json:"predictions"`
}

// HealthStatus is the payload of GET /api/health.
type HealthStatus struct {
	Status    string            `json:"status"`
	Message   string            `json:"message,omitempty"`
	Agents    map[string]string `json:"agents,omitempty"`
	Endpoints []string          `json:"endpoints,omitempty"`
}

// Healthy reports whether the service declared itself healthy.  An empty
// status on a 2xx response counts as healthy.
func (h *HealthStatus) Healthy() bool {
	if h == nil {
		return false
	}
	s := strings.ToLower(h.Status)
	return s == "" || s == "healthy" || s == "ok"
}

func requireSMILES(smiles string) error {
	if strings.TrimSpace(smiles) == "" {
		return errors.EmptyInput("Please enter a SMILES string")
	}
	return nil
}

// Parse validates a SMILES string and returns its molecule summary.
func (c *Client) Parse(ctx context.Context, smiles string) (*molecule.MoleculeRecord, error) {
	if err := requireSMILES(smiles); err != nil {
		return nil, err
	}
	var rec molecule.MoleculeRecord
	if err := c.post(ctx, "/api/parse", smilesRequest{SMILES: smiles}, &rec); err != nil {
		return nil, remoteError(err, MsgParseFailed)
	}
	if rec.Descriptors == nil {
		rec.Descriptors = map[string]interface{}{}
	}
	return &rec, nil
}

// GenerateConformer requests a 3D conformer optimized with forcefield.  A
// 2xx response whose status is "error" is still a failure.
func (c *Client) GenerateConformer(ctx context.Context, smiles string, forcefield molecule.Forcefield) (*molecule.ConformerRecord, error) {
	if err := requireSMILES(smiles); err != nil {
		return nil, err
	}
	if forcefield == "" {
		forcefield = molecule.ForcefieldUFF
	}
	var rec molecule.ConformerRecord
	if err := c.post(ctx, "/api/conformer", conformerRequest{SMILES: smiles, Forcefield: string(forcefield)}, &rec); err != nil {
		return nil, remoteError(err, MsgConformerFailed)
	}
	switch rec.Status {
	case molecule.ConformerError:
		msg := rec.Error
		if msg == "" {
			msg = MsgConformerFailed
		}
		return nil, errors.Remote(msg).WithDetail("status=error")
	case "":
		rec.Status = molecule.ConformerOK
	}
	if rec.ForcefieldUsed == "" {
		rec.ForcefieldUsed = string(forcefield)
	}
	return &rec, nil
}

// Analyze runs the service-side combined analysis.
func (c *Client) Analyze(ctx context.Context, smiles string) (*AnalyzeResponse, error) {
	if err := requireSMILES(smiles); err != nil {
		return nil, err
	}
	var resp AnalyzeResponse
	if err := c.post(ctx, "/api/analyze", smilesRequest{SMILES: smiles}, &resp); err != nil {
		return nil, remoteError(err, MsgAnalyzeFailed)
	}
	if resp.Admet == nil {
		resp.Admet = []molecule.AdmetPrediction{}
	}
	return &resp, nil
}

// PredictADMET requests ADMET predictions alone.
func (c *Client) PredictADMET(ctx context.Context, smiles string) ([]molecule.AdmetPrediction, error) {
	if err := requireSMILES(smiles); err != nil {
		return nil, err
	}
	var resp AdmetResponse
	if err := c.post(ctx, "/api/admet", smilesRequest{SMILES: smiles}, &resp); err != nil {
		return nil, remoteError(err, MsgAdmetFailed)
	}
	if resp.Predictions == nil {
		resp.Predictions = []molecule.AdmetPrediction{}
	}
	return resp.Predictions, nil
}

// Health probes the service.  Any non-2xx or transport failure is an error.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var h HealthStatus
	if err := c.get(ctx, "/api/health", &h); err != nil {
		return nil, remoteError(err, MsgHealthFailed)
	}
	return &h, nil
}
