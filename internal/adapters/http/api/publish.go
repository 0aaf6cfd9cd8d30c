package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/okian/scorestream/internal/domain/model"
)

const (
	maxBodyBytes = 1 << 16
	maxUintBits  = 256
)

// publishRequest keeps fields raw so absent, null and typed values can be
// told apart. score and playTime may be JSON numbers or numeric strings.
type publishRequest struct {
	Player   json.RawMessage `json:"player"`
	Score    json.RawMessage `json:"score"`
	PlayTime json.RawMessage `json:"playTime"`
}

// PublishHandler handles record submission.
type PublishHandler struct {
	deps PublishDependencies
}

// NewPublishHandler creates a new publish handler.
func NewPublishHandler(deps PublishDependencies) *PublishHandler {
	return &PublishHandler{deps: deps}
}

// HandlePublish handles POST /api/publish requests.
func (h *PublishHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	const op = "api.publish"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req publishRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := req.record()
	if err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	hash, err := h.deps.Publish(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrUpstream, err))
		return
	}
	writeJSON(w, http.StatusOK, publishResponse{Success: true, TxHash: hash})
}

func (p publishRequest) record() (model.Record, error) {
	const op = "api.publish"
	if !present(p.Player) || !present(p.Score) || !present(p.PlayTime) {
		return model.Record{}, NewKind(op, ErrMissingFields)
	}

	var player string
	if err := json.Unmarshal(p.Player, &player); err != nil {
		return model.Record{}, Errorf(op, ErrBadRequest, "player must be a string")
	}
	if player == "" {
		return model.Record{}, NewKind(op, ErrMissingFields)
	}
	if !common.IsHexAddress(player) {
		return model.Record{}, Errorf(op, ErrBadRequest, "invalid player address %q", player)
	}
	addr := common.HexToAddress(player)

	score, err := uintField("score", p.Score)
	if err != nil {
		return model.Record{}, err
	}
	playTime, err := uintField("playTime", p.PlayTime)
	if err != nil {
		return model.Record{}, err
	}
	return model.Record{Player: addr.Hex(), Score: score, PlayTime: playTime}, nil
}

// uintField accepts a JSON number or string holding an unsigned integer that
// fits in 256 bits and returns its canonical decimal form.
func uintField(name string, raw json.RawMessage) (string, error) {
	const op = "api.publish"
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", Errorf(op, ErrBadRequest, "%s: %v", name, err)
	}
	n, err := model.ToUint(v)
	if err != nil {
		return "", Errorf(op, ErrBadRequest, "%s must be a non-negative integer", name)
	}
	if n.BitLen() > maxUintBits {
		return "", Errorf(op, ErrBadRequest, "%s overflows uint256", name)
	}
	return n.String(), nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
