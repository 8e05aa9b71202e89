package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// CredixServiceName is the fully-qualified name of the service.
const CredixServiceName = "credix.v1.CredixService"

// Procedure paths, in the form connect routes on.
const (
	CredixServiceSignUpProcedure             = "/credix.v1.CredixService/SignUp"
	CredixServiceLoginProcedure              = "/credix.v1.CredixService/Login"
	CredixServiceLogoutProcedure             = "/credix.v1.CredixService/Logout"
	CredixServiceGetCurrentUserProcedure     = "/credix.v1.CredixService/GetCurrentUser"
	CredixServiceUploadProcedure             = "/credix.v1.CredixService/Upload"
	CredixServicePreviewProcedure            = "/credix.v1.CredixService/Preview"
	CredixServiceSaveRecordsProcedure        = "/credix.v1.CredixService/SaveRecords"
	CredixServiceListRecordsProcedure        = "/credix.v1.CredixService/ListRecords"
	CredixServiceWatchProcedure              = "/credix.v1.CredixService/Watch"
	CredixServiceGetBudgetProcedure          = "/credix.v1.CredixService/GetBudget"
	CredixServiceUpdateBudgetProcedure       = "/credix.v1.CredixService/UpdateBudget"
	CredixServiceAddSpendProcedure           = "/credix.v1.CredixService/AddSpend"
	CredixServiceListSpendsProcedure         = "/credix.v1.CredixService/ListSpends"
	CredixServiceSearchSpendsProcedure       = "/credix.v1.CredixService/SearchSpends"
	CredixServiceGetDashboardProcedure       = "/credix.v1.CredixService/GetDashboard"
	CredixServiceUploadProfilePhotoProcedure = "/credix.v1.CredixService/UploadProfilePhoto"
	CredixServiceGetProfileProcedure         = "/credix.v1.CredixService/GetProfile"
)

// DefaultReadMaxBytes caps one request message, inline workbook and photo
// bytes included.
const DefaultReadMaxBytes = 10 << 20

// NewCredixServiceHandler builds an HTTP handler for every RPC. It returns
// the path to mount the handler on. Options passed in override the defaults.
func NewCredixServiceHandler(svc *CredixService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithReadMaxBytes(DefaultReadMaxBytes),
	}, opts...)

	routes := map[string]http.Handler{
		CredixServiceSignUpProcedure:             connect.NewUnaryHandler(CredixServiceSignUpProcedure, svc.SignUp, opts...),
		CredixServiceLoginProcedure:              connect.NewUnaryHandler(CredixServiceLoginProcedure, svc.Login, opts...),
		CredixServiceLogoutProcedure:             connect.NewUnaryHandler(CredixServiceLogoutProcedure, svc.Logout, opts...),
		CredixServiceGetCurrentUserProcedure:     connect.NewUnaryHandler(CredixServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...),
		CredixServiceUploadProcedure:             connect.NewUnaryHandler(CredixServiceUploadProcedure, svc.Upload, opts...),
		CredixServicePreviewProcedure:            connect.NewUnaryHandler(CredixServicePreviewProcedure, svc.Preview, opts...),
		CredixServiceSaveRecordsProcedure:        connect.NewUnaryHandler(CredixServiceSaveRecordsProcedure, svc.SaveRecords, opts...),
		CredixServiceListRecordsProcedure:        connect.NewUnaryHandler(CredixServiceListRecordsProcedure, svc.ListRecords, opts...),
		CredixServiceWatchProcedure:              connect.NewServerStreamHandler(CredixServiceWatchProcedure, svc.Watch, opts...),
		CredixServiceGetBudgetProcedure:          connect.NewUnaryHandler(CredixServiceGetBudgetProcedure, svc.GetBudget, opts...),
		CredixServiceUpdateBudgetProcedure:       connect.NewUnaryHandler(CredixServiceUpdateBudgetProcedure, svc.UpdateBudget, opts...),
		CredixServiceAddSpendProcedure:           connect.NewUnaryHandler(CredixServiceAddSpendProcedure, svc.AddSpend, opts...),
		CredixServiceListSpendsProcedure:         connect.NewUnaryHandler(CredixServiceListSpendsProcedure, svc.ListSpends, opts...),
		CredixServiceSearchSpendsProcedure:       connect.NewUnaryHandler(CredixServiceSearchSpendsProcedure, svc.SearchSpends, opts...),
		CredixServiceGetDashboardProcedure:       connect.NewUnaryHandler(CredixServiceGetDashboardProcedure, svc.GetDashboard, opts...),
		CredixServiceUploadProfilePhotoProcedure: connect.NewUnaryHandler(CredixServiceUploadProfilePhotoProcedure, svc.UploadProfilePhoto, opts...),
		CredixServiceGetProfileProcedure:         connect.NewUnaryHandler(CredixServiceGetProfileProcedure, svc.GetProfile, opts...),
	}

	return "/" + CredixServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// CredixServiceClient calls the service over HTTP. Scripts and tests use it.
type CredixServiceClient struct {
	signUp             *connect.Client[CredentialsRequest, AuthResponse]
	login              *connect.Client[CredentialsRequest, AuthResponse]
	logout             *connect.Client[LogoutRequest, LogoutResponse]
	getCurrentUser     *connect.Client[GetCurrentUserRequest, GetCurrentUserResponse]
	upload             *connect.Client[UploadRequest, UploadResponse]
	preview            *connect.Client[UploadRequest, UploadResponse]
	saveRecords        *connect.Client[SaveRecordsRequest, SaveRecordsResponse]
	listRecords        *connect.Client[ListRecordsRequest, ListRecordsResponse]
	watch              *connect.Client[WatchRequest, WatchResponse]
	getBudget          *connect.Client[GetBudgetRequest, BudgetResponse]
	updateBudget       *connect.Client[UpdateBudgetRequest, BudgetResponse]
	addSpend           *connect.Client[AddSpendRequest, AddSpendResponse]
	listSpends         *connect.Client[ListSpendsRequest, ListSpendsResponse]
	searchSpends       *connect.Client[SearchSpendsRequest, SearchSpendsResponse]
	getDashboard       *connect.Client[GetDashboardRequest, GetDashboardResponse]
	uploadProfilePhoto *connect.Client[UploadProfilePhotoRequest, ProfileResponse]
	getProfile         *connect.Client[GetProfileRequest, ProfileResponse]
}

// NewCredixServiceClient constructs a client for the service at baseURL.
func NewCredixServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CredixServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &CredixServiceClient{
		signUp:             connect.NewClient[CredentialsRequest, AuthResponse](httpClient, baseURL+CredixServiceSignUpProcedure, opts...),
		login:              connect.NewClient[CredentialsRequest, AuthResponse](httpClient, baseURL+CredixServiceLoginProcedure, opts...),
		logout:             connect.NewClient[LogoutRequest, LogoutResponse](httpClient, baseURL+CredixServiceLogoutProcedure, opts...),
		getCurrentUser:     connect.NewClient[GetCurrentUserRequest, GetCurrentUserResponse](httpClient, baseURL+CredixServiceGetCurrentUserProcedure, opts...),
		upload:             connect.NewClient[UploadRequest, UploadResponse](httpClient, baseURL+CredixServiceUploadProcedure, opts...),
		preview:            connect.NewClient[UploadRequest, UploadResponse](httpClient, baseURL+CredixServicePreviewProcedure, opts...),
		saveRecords:        connect.NewClient[SaveRecordsRequest, SaveRecordsResponse](httpClient, baseURL+CredixServiceSaveRecordsProcedure, opts...),
		listRecords:        connect.NewClient[ListRecordsRequest, ListRecordsResponse](httpClient, baseURL+CredixServiceListRecordsProcedure, opts...),
		watch:              connect.NewClient[WatchRequest, WatchResponse](httpClient, baseURL+CredixServiceWatchProcedure, opts...),
		getBudget:          connect.NewClient[GetBudgetRequest, BudgetResponse](httpClient, baseURL+CredixServiceGetBudgetProcedure, opts...),
		updateBudget:       connect.NewClient[UpdateBudgetRequest, BudgetResponse](httpClient, baseURL+CredixServiceUpdateBudgetProcedure, opts...),
		addSpend:           connect.NewClient[AddSpendRequest, AddSpendResponse](httpClient, baseURL+CredixServiceAddSpendProcedure, opts...),
		listSpends:         connect.NewClient[ListSpendsRequest, ListSpendsResponse](httpClient, baseURL+CredixServiceListSpendsProcedure, opts...),
		searchSpends:       connect.NewClient[SearchSpendsRequest, SearchSpendsResponse](httpClient, baseURL+CredixServiceSearchSpendsProcedure, opts...),
		getDashboard:       connect.NewClient[GetDashboardRequest, GetDashboardResponse](httpClient, baseURL+CredixServiceGetDashboardProcedure, opts...),
		uploadProfilePhoto: connect.NewClient[UploadProfilePhotoRequest, ProfileResponse](httpClient, baseURL+CredixServiceUploadProfilePhotoProcedure, opts...),
		getProfile:         connect.NewClient[GetProfileRequest, ProfileResponse](httpClient, baseURL+CredixServiceGetProfileProcedure, opts...),
	}
}

func (c *CredixServiceClient) SignUp(ctx context.Context, req *connect.Request[CredentialsRequest]) (*connect.Response[AuthResponse], error) {
	return c.signUp.CallUnary(ctx, req)
}

func (c *CredixServiceClient) Login(ctx context.Context, req *connect.Request[CredentialsRequest]) (*connect.Response[AuthResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *CredixServiceClient) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	return c.logout.CallUnary(ctx, req)
}

func (c *CredixServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

func (c *CredixServiceClient) Upload(ctx context.Context, req *connect.Request[UploadRequest]) (*connect.Response[UploadResponse], error) {
	return c.upload.CallUnary(ctx, req)
}

func (c *CredixServiceClient) Preview(ctx context.Context, req *connect.Request[UploadRequest]) (*connect.Response[UploadResponse], error) {
	return c.preview.CallUnary(ctx, req)
}

func (c *CredixServiceClient) SaveRecords(ctx context.Context, req *connect.Request[SaveRecordsRequest]) (*connect.Response[SaveRecordsResponse], error) {
	return c.saveRecords.CallUnary(ctx, req)
}

func (c *CredixServiceClient) ListRecords(ctx context.Context, req *connect.Request[ListRecordsRequest]) (*connect.Response[ListRecordsResponse], error) {
	return c.listRecords.CallUnary(ctx, req)
}

func (c *CredixServiceClient) Watch(ctx context.Context, req *connect.Request[WatchRequest]) (*connect.ServerStreamForClient[WatchResponse], error) {
	return c.watch.CallServerStream(ctx, req)
}

func (c *CredixServiceClient) GetBudget(ctx context.Context, req *connect.Request[GetBudgetRequest]) (*connect.Response[BudgetResponse], error) {
	return c.getBudget.CallUnary(ctx, req)
}

func (c *CredixServiceClient) UpdateBudget(ctx context.Context, req *connect.Request[UpdateBudgetRequest]) (*connect.Response[BudgetResponse], error) {
	return c.updateBudget.CallUnary(ctx, req)
}

func (c *CredixServiceClient) AddSpend(ctx context.Context, req *connect.Request[AddSpendRequest]) (*connect.Response[AddSpendResponse], error) {
	return c.addSpend.CallUnary(ctx, req)
}

func (c *CredixServiceClient) ListSpends(ctx context.Context, req *connect.Request[ListSpendsRequest]) (*connect.Response[ListSpendsResponse], error) {
	return c.listSpends.CallUnary(ctx, req)
}

func (c *CredixServiceClient) SearchSpends(ctx context.Context, req *connect.Request[SearchSpendsRequest]) (*connect.Response[SearchSpendsResponse], error) {
	return c.searchSpends.CallUnary(ctx, req)
}

func (c *CredixServiceClient) GetDashboard(ctx context.Context, req *connect.Request[GetDashboardRequest]) (*connect.Response[GetDashboardResponse], error) {
	return c.getDashboard.CallUnary(ctx, req)
}

func (c *CredixServiceClient) UploadProfilePhoto(ctx context.Context, req *connect.Request[UploadProfilePhotoRequest]) (*connect.Response[ProfileResponse], error) {
	return c.uploadProfilePhoto.CallUnary(ctx, req)
}

func (c *CredixServiceClient) GetProfile(ctx context.Context, req *connect.Request[GetProfileRequest]) (*connect.Response[ProfileResponse], error) {
	return c.getProfile.CallUnary(ctx, req)
}
