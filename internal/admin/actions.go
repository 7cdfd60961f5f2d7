package admin

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

// ErrUnknownAction fails the request at decode time; an action outside the
// closed set below never reaches a query.
var ErrUnknownAction = errors.New("unknown admin action")

// Action is the closed set of admin requests. DecodeAction is the only
// constructor, so the dispatch switch in the handler covers every variant.
type Action interface {
	actionName() string
}

type GetDashboardStats struct{}

type GetBusinesses struct {
	Page    int
	PerPage int
	Status  domain.VerificationStatus
}

type UpdateBusinessStatus struct {
	BusinessID string
	Status     domain.VerificationStatus
}

type GetBusinessDetails struct {
	BusinessID string
}

type GetUsers struct {
	Page     int
	PerPage  int
	UserType domain.UserType
}

type GetOrders struct {
	Page    int
	PerPage int
	Status  domain.OrderStatus
}

type GetSystemSettings struct{}

type UpdateSystemSettings struct {
	Settings map[string]string
}

func (GetDashboardStats) actionName() string    { return "getDashboardStats" }
func (GetBusinesses) actionName() string        { return "getBusinesses" }
func (UpdateBusinessStatus) actionName() string { return "updateBusinessStatus" }
func (GetBusinessDetails) actionName() string   { return "getBusinessDetails" }
func (GetUsers) actionName() string             { return "getUsers" }
func (GetOrders) actionName() string            { return "getOrders" }
func (GetSystemSettings) actionName() string    { return "getSystemSettings" }
func (UpdateSystemSettings) actionName() string { return "updateSystemSettings" }

type actionEnvelope struct {
	Action     string            `json:"action"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	Status     string            `json:"status"`
	UserType   string            `json:"user_type"`
	BusinessID string            `json:"business_id"`
	Settings   map[string]string `json:"settings"`
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func (e *actionEnvelope) page() int {
	if e.Page < 1 {
		return 1
	}
	return e.Page
}

func (e *actionEnvelope) perPage() int {
	if e.PerPage < 1 {
		return defaultPerPage
	}
	if e.PerPage > maxPerPage {
		return maxPerPage
	}
	return e.PerPage
}

// DecodeAction turns the wire envelope {"action": "...", ...} into one of
// the typed variants, validating the fields each action needs.
func DecodeAction(data []byte) (Action, error) {
	var env actionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode action envelope: %w", err)
	}

	switch env.Action {
	case "getDashboardStats":
		return GetDashboardStats{}, nil

	case "getBusinesses":
		status := domain.VerificationStatus(env.Status)
		if env.Status != "" && !domain.IsValidVerificationStatus(status) {
			return nil, fmt.Errorf("invalid verification status %q", env.Status)
		}
		return GetBusinesses{Page: env.page(), PerPage: env.perPage(), Status: status}, nil

	case "updateBusinessStatus":
		if env.BusinessID == "" {
			return nil, errors.New("business_id is required")
		}
		status := domain.VerificationStatus(env.Status)
		if !domain.IsValidVerificationStatus(status) {
			return nil, fmt.Errorf("invalid verification status %q", env.Status)
		}
		return UpdateBusinessStatus{BusinessID: env.BusinessID, Status: status}, nil

	case "getBusinessDetails":
		if env.BusinessID == "" {
			return nil, errors.New("business_id is required")
		}
		return GetBusinessDetails{BusinessID: env.BusinessID}, nil

	case "getUsers":
		userType := domain.UserType(env.UserType)
		if env.UserType != "" && userType != domain.UserTypeBuyer && userType != domain.UserTypeSeller {
			return nil, fmt.Errorf("invalid user type %q", env.UserType)
		}
		return GetUsers{Page: env.page(), PerPage: env.perPage(), UserType: userType}, nil

	case "getOrders":
		status := domain.OrderStatus(env.Status)
		if env.Status != "" && !domain.IsValidStatus(status) {
			return nil, fmt.Errorf("invalid order status %q", env.Status)
		}
		return GetOrders{Page: env.page(), PerPage: env.perPage(), Status: status}, nil

	case "getSystemSettings":
		return GetSystemSettings{}, nil

	case "updateSystemSettings":
		if len(env.Settings) == 0 {
			return nil, errors.New("settings must not be empty")
		}
		return UpdateSystemSettings{Settings: env.Settings}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Action)
	}
}
