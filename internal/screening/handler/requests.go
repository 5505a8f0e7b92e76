package handler

import (
	"net/url"
	"strconv"
	"strings"

	"sdnscreen/internal/screening/service"
	dErrors "sdnscreen/pkg/domain-errors"
)

// parseScreenQuery reads the GET /screen parameters. Range checks are left to
// the service; only the syntax is checked here.
func parseScreenQuery(q url.Values) (service.ScreenRequest, error) {
	req := service.ScreenRequest{Name: q.Get("name")}
	threshold, err := optionalInt(q, "threshold")
	if err != nil {
		return req, err
	}
	limit, err := optionalInt(q, "limit")
	if err != nil {
		return req, err
	}
	req.Threshold = threshold
	req.Limit = limit
	return req, nil
}

func optionalInt(q url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, key+" must be an integer")
	}
	return &n, nil
}

// CandidateRequest is one name to screen from a document.
type CandidateRequest struct {
	Name       string `json:"name"`
	EntityType string `json:"entity_type,omitempty"`
}

// DocumentScreenRequest is the HTTP request body for POST /screen/document.
// Either names or text must be given; names win when both are.
type DocumentScreenRequest struct {
	Names          []CandidateRequest `json:"names"`
	Text           string             `json:"text"`
	Threshold      *int               `json:"threshold"`
	LimitPerEntity *int               `json:"limit_per_entity"`
}

// Validate implements httputil.Validatable.
func (r *DocumentScreenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Names) > service.MaxCandidates {
		return dErrors.New(dErrors.CodeValidation, "too many names")
	}
	r.Text = strings.TrimSpace(r.Text)
	if len(r.Names) == 0 && r.Text == "" {
		return dErrors.New(dErrors.CodeValidation, "names or text is required")
	}
	return nil
}

func (r *DocumentScreenRequest) ToService() service.DocumentRequest {
	req := service.DocumentRequest{
		Text:           r.Text,
		Threshold:      r.Threshold,
		LimitPerEntity: r.LimitPerEntity,
	}
	for _, n := range r.Names {
		req.Candidates = append(req.Candidates, service.Candidate{Name: n.Name, EntityType: n.EntityType})
	}
	return req
}
