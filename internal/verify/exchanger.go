package verify

import (
	"context"

	"github.com/geoasistencia/console/internal/api"
)

// Exchanger implements Verifier against the backend verification endpoints.
type Exchanger struct {
	client *api.Client
}

// NewExchanger creates an Exchanger backed by the request client.
func NewExchanger(client *api.Client) *Exchanger {
	return &Exchanger{client: client}
}

type verifyActionRequest struct {
	Action   string `json:"action"`
	Motivo   string `json:"motivo"`
	Password string `json:"password"`
}

type verifyActionResponse struct {
	ActionToken string `json:"action_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// VerifyAction exchanges justification and password for an action token.
func (e *Exchanger) VerifyAction(
	ctx context.Context,
	action ActionKind,
	justification, password string,
) (string, error) {
	req := verifyActionRequest{
		Action:   string(action),
		Motivo:   justification,
		Password: password,
	}
	var resp verifyActionResponse
	if err := e.client.Post(ctx, "/admin/actions/verify", req, &resp); err != nil {
		return "", err
	}
	return resp.ActionToken, nil
}

type revealPIIRequest struct {
	TargetUsuarioID string `json:"target_usuario_id"`
	Motivo          string `json:"motivo"`
	Password        string `json:"password"`
}

type revealPIIResponse struct {
	RevealToken string `json:"reveal_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// RevealPII exchanges justification and password for a reveal token scoped to
// one target user.
func (e *Exchanger) RevealPII(
	ctx context.Context,
	targetID, justification, password string,
) (string, error) {
	req := revealPIIRequest{
		TargetUsuarioID: targetID,
		Motivo:          justification,
		Password:        password,
	}
	var resp revealPIIResponse
	if err := e.client.Post(ctx, "/admin/privacy/reveal", req, &resp); err != nil {
		return "", err
	}
	return resp.RevealToken, nil
}
