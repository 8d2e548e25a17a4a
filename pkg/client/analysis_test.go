package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	molerrors "github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/molecule"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func readBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	b, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m), "raw: %s", string(b))
	return m
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

const ethanolPDB = "HETATM    1  C1  UNL     1      -0.888   0.152   0.064  1.00  0.00           C\n" +
	"HETATM    2  C2  UNL     1       0.514  -0.367  -0.059  1.00  0.00           C\n" +
	"HETATM    3  O1  UNL     1       1.351   0.215   0.881  1.00  0.00           O\n" +
	"END\n"

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

func TestParse_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/parse", r.URL.Path)
		assert.Equal(t, "CCO", readBody(t, r)["smiles"])
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"smiles": "CCO", "formula": "C2H6O", "weight": 46.07,
			"inchi": "InChI=1S/C2H6O/c1-2-3/h3H,2H2,1H3", "inchikey": "LFQSCWFLJHTTHZ-UHFFFAOYSA-N",
			"descriptors": map[string]float64{"logp": -0.0014, "tpsa": 20.23},
		})
	})

	rec, err := c.Parse(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Equal(t, "C2H6O", rec.Formula)
	assert.InDelta(t, 46.07, rec.Weight, 1e-9)
	assert.Equal(t, 20.23, rec.Descriptors["tpsa"])
}

func TestParse_ServerErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]string{"error": "invalid smiles"})
	})

	_, err := c.Parse(context.Background(), "C1CC")
	require.Error(t, err)
	assert.True(t, molerrors.IsCode(err, molerrors.CodeRemote))
	assert.Equal(t, "invalid smiles", molerrors.UserMessage(err))
}

func TestParse_GenericFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Parse(context.Background(), "CCO")
	assert.Equal(t, MsgParseFailed, molerrors.UserMessage(err))
}

func TestParse_EmptySMILESNeverSent(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := c.Parse(context.Background(), "  ")
	assert.True(t, molerrors.IsCode(err, molerrors.CodeEmptyInput))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

// ---------------------------------------------------------------------------
// GenerateConformer
// ---------------------------------------------------------------------------

func TestGenerateConformer_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/conformer", r.URL.Path)
		body := readBody(t, r)
		assert.Equal(t, "CCO", body["smiles"])
		assert.Equal(t, "MMFF", body["forcefield"])
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"pdb_block": ethanolPDB, "status": "ok"})
	})

	rec, err := c.GenerateConformer(context.Background(), "CCO", molecule.ForcefieldMMFF)
	require.NoError(t, err)
	assert.Equal(t, ethanolPDB, rec.PDBBlock, "pdb text must be bit-exact")
	assert.Equal(t, molecule.ConformerOK, rec.Status)
	assert.Equal(t, "MMFF", rec.ForcefieldUsed)
}

func TestGenerateConformer_DefaultsToUFF(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "UFF", readBody(t, r)["forcefield"])
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"pdb_block": ethanolPDB})
	})

	rec, err := c.GenerateConformer(context.Background(), "CCO", "")
	require.NoError(t, err)
	assert.Equal(t, molecule.ConformerOK, rec.Status)
}

func TestGenerateConformer_StatusErrorIsFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"pdb_block": "", "status": "error", "error": "embedding failed"})
	})

	_, err := c.GenerateConformer(context.Background(), "CCO", molecule.ForcefieldUFF)
	require.Error(t, err)
	assert.True(t, molerrors.IsCode(err, molerrors.CodeRemote))
	assert.Equal(t, "embedding failed", molerrors.UserMessage(err))
}

func TestGenerateConformer_DetailBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]string{"detail": "Failed to generate conformer"})
	})

	_, err := c.GenerateConformer(context.Background(), "CCO", molecule.ForcefieldUFF)
	assert.Equal(t, "Failed to generate conformer", molerrors.UserMessage(err))
}

// ---------------------------------------------------------------------------
// Analyze / ADMET / Health
// ---------------------------------------------------------------------------

func TestAnalyze_StructuredPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"molecule":  map[string]interface{}{"smiles": "CCO", "formula": "C2H6O", "weight": 46.07},
			"conformer": map[string]interface{}{"pdb_block": ethanolPDB, "status": "ok", "atom_count": 3},
			"admet":     []map[string]interface{}{{"property": "BBB", "value": "penetrant", "probability": 0.91}},
		})
	})

	resp, err := c.Analyze(context.Background(), "CCO")
	require.NoError(t, err)
	require.NotNil(t, resp.Molecule)
	require.NotNil(t, resp.Conformer)
	assert.Equal(t, 3, resp.Conformer.AtomCount)
	require.Len(t, resp.Admet, 1)
	assert.InDelta(t, 0.91, *resp.Admet[0].Confidence, 1e-9)
}

func TestAnalyze_LegacyPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"molecule":        map[string]interface{}{"smiles": "CCO"},
			"pdb_block":       ethanolPDB,
			"analysis_status": map[string]string{"parser": "success", "conformer": "success", "admet": "failed", "render": "failed"},
		})
	})

	resp, err := c.Analyze(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Nil(t, resp.Conformer)
	assert.Equal(t, ethanolPDB, resp.PDBBlock)
	assert.NotNil(t, resp.Admet)
	assert.Empty(t, resp.Admet)
	require.NotNil(t, resp.AnalysisStatus)
	assert.Equal(t, "failed", resp.AnalysisStatus.Admet)
}

func TestPredictADMET(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admet", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"predictions": []map[string]interface{}{
				{"property": "Solubility", "value": -1.2, "unit": "log mol/L"},
				{"property": "hERG", "value": "low", "probability": 0.3},
			},
		})
	})

	preds, err := c.PredictADMET(context.Background(), "CCO")
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, -1.2, preds[0].Value)
	assert.Equal(t, "low", preds[1].Value)
}

func TestPredictADMET_Failure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.PredictADMET(context.Background(), "CCO")
	assert.Equal(t, MsgAdmetFailed, molerrors.UserMessage(err))
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/health", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"endpoints": []string{"/api/health", "/api/parse"},
		})
	})

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Healthy())
	assert.Equal(t, []string{"/api/health", "/api/parse"}, h.Endpoints)
}

func TestHealth_Non2xxIsOffline(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	h, err := c.Health(context.Background())
	assert.Error(t, err)
	assert.False(t, h.Healthy())
}
