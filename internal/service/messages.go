package service

import (
	"github.com/credix-app/credix/backend/internal/analytics"
	"github.com/credix-app/credix/backend/internal/auth"
	"github.com/credix-app/credix/backend/internal/ingest"
	"github.com/credix-app/credix/backend/internal/ledger"
	"github.com/credix-app/credix/backend/internal/reconcile"
	"github.com/credix-app/credix/backend/internal/search"
)

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	IDToken          string           `json:"idToken"`
	RefreshToken     string           `json:"refreshToken"`
	ExpiresInSeconds int64            `json:"expiresInSeconds"`
	User             *auth.UserClaims `json:"user"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User    *auth.UserClaims `json:"user"`
	Profile *ledger.Profile  `json:"profile"`
}

// UploadRequest carries one spreadsheet. Year is required for bills and
// monthly uploads and ignored for tracks and debts.
type UploadRequest struct {
	Feed     ledger.Feed `json:"feed"`
	Year     int         `json:"year,omitempty"`
	Filename string      `json:"filename,omitempty"`
	Data     []byte      `json:"data"`
}

type UploadResponse struct {
	Records ledger.RecordSet  `json:"records"`
	Report  ingest.Report     `json:"report"`
	Result  *reconcile.Result `json:"result,omitempty"`
}

type SaveRecordsRequest struct {
	Scope   ledger.Scope     `json:"scope"`
	Records ledger.RecordSet `json:"records"`
}

type SaveRecordsResponse struct {
	Result *reconcile.Result `json:"result"`
}

// ListRecordsRequest lists a feed. A zero Year on a year-scoped feed lists
// every year.
type ListRecordsRequest struct {
	Feed ledger.Feed `json:"feed"`
	Year int         `json:"year,omitempty"`
}

type ListRecordsResponse struct {
	Records ledger.RecordSet `json:"records"`
}

type WatchRequest struct {
	Feed ledger.Feed `json:"feed"`
}

type WatchResponse struct {
	Records ledger.RecordSet `json:"records"`
}

type GetBudgetRequest struct{}

// UpdateBudgetRequest sets one month, or replaces the whole budget when
// Budget is non-nil.
type UpdateBudgetRequest struct {
	Month  ledger.MonthName `json:"month,omitempty"`
	Amount ledger.Amount    `json:"amount,omitempty"`
	Budget ledger.Budget    `json:"budget,omitempty"`
}

type BudgetResponse struct {
	Budget ledger.Budget `json:"budget"`
	Total  ledger.Amount `json:"total"`
}

type AddSpendRequest struct {
	Amount   ledger.Amount `json:"amount"`
	Date     string        `json:"date,omitempty"`
	Category string        `json:"category,omitempty"`
	Note     string        `json:"note,omitempty"`
}

type AddSpendResponse struct {
	Spend ledger.Spend `json:"spend"`
}

type ListSpendsRequest struct {
	PageSize  int32  `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

type ListSpendsResponse struct {
	Spends        []ledger.Spend `json:"spends"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

type SearchSpendsRequest struct {
	Query     string           `json:"query,omitempty"`
	Category  string           `json:"category,omitempty"`
	Month     ledger.MonthName `json:"month,omitempty"`
	AmountMin float64          `json:"amountMin,omitempty"`
	AmountMax float64          `json:"amountMax,omitempty"`
	Page      int              `json:"page,omitempty"`
	PageSize  int              `json:"pageSize,omitempty"`
}

type SearchSpendsResponse = search.SearchResponse

// GetDashboardRequest restricts the year-scoped feeds to Year; zero means
// all years.
type GetDashboardRequest struct {
	Year int `json:"year,omitempty"`
}

type GetDashboardResponse = analytics.Dashboard

type UploadProfilePhotoRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"data"`
}

type GetProfileRequest struct{}

type ProfileResponse struct {
	Profile *ledger.Profile `json:"profile"`
}
