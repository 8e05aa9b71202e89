// seed fills a running backend with a year of demo data through the public
// API: card bills, monthly expenditure, segment tracks, debts, a budget and
// a few spends.
//
// Usage:
//
//	SKIP_AUTH=true go run ./cmd/server &
//	go run ./scripts/seed
//	API_URL=http://localhost:8111 AUTH_TOKEN=... go run ./scripts/seed
package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/credix-app/credix/backend/internal/ledger"
	"github.com/credix-app/credix/backend/internal/logger"
	"github.com/credix-app/credix/backend/internal/service"
)

func main() {
	log := logger.NewConsole("info")

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8111"
	}
	year := time.Now().Year()
	if y, err := strconv.Atoi(os.Getenv("SEED_YEAR")); err == nil && y > 0 {
		year = y
	}

	var opts []connect.ClientOption
	if token := os.Getenv("AUTH_TOKEN"); token != "" {
		log.Info().Msg("using provided auth token")
		opts = append(opts, connect.WithInterceptors(authInterceptor(token)))
	} else {
		log.Info().Msg("no auth token provided, backend must be running with SKIP_AUTH=true")
	}

	client := service.NewCredixServiceClient(&http.Client{Timeout: 30 * time.Second}, apiURL, opts...)
	ctx := context.Background()

	s := &seeder{client: client, log: log, year: year}
	for _, step := range []func(context.Context) error{
		s.bills,
		s.monthly,
		s.tracks,
		s.debts,
		s.budget,
		s.spends,
	} {
		if err := step(ctx); err != nil {
			log.Fatal().Err(err).Msg("seeding failed")
		}
	}

	dash, err := client.GetDashboard(ctx, connect.NewRequest(&service.GetDashboardRequest{Year: year}))
	if err != nil {
		log.Fatal().Err(err).Msg("verification failed")
	}
	log.Info().
		Float64("card_spend", float64(dash.Msg.Cards.TotalSpend)).
		Float64("total_debt", float64(dash.Msg.TotalDebt)).
		Float64("total_budget", float64(dash.Msg.TotalBudget)).
		Msg("seeded data is queryable")
}

// authInterceptor adds the Authorization header to requests
func authInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set("Authorization", "Bearer "+token)
			return next(ctx, req)
		}
	}
}

type seeder struct {
	client *service.CredixServiceClient
	log    zerolog.Logger
	year   int
}

func (s *seeder) upload(ctx context.Context, feed ledger.Feed, rows [][]any) error {
	data, err := workbook(rows)
	if err != nil {
		return err
	}
	resp, err := s.client.Upload(ctx, connect.NewRequest(&service.UploadRequest{
		Feed:     feed,
		Year:     s.year,
		Filename: string(feed) + ".xlsx",
		Data:     data,
	}))
	if err != nil {
		return err
	}
	s.log.Info().
		Str("feed", string(feed)).
		Int("records", resp.Msg.Report.Records).
		Int("skipped", len(resp.Msg.Report.Skipped)).
		Msg("uploaded")
	return nil
}

func (s *seeder) bills(ctx context.Context) error {
	header := []any{"Cards"}
	for _, m := range ledger.Months {
		header = append(header, string(m))
	}
	rows := [][]any{header}
	for i, card := range []string{"HDFC Regalia", "ICICI Amazon Pay", "SBI SimplyClick", "Axis Ace"} {
		row := []any{card}
		for month := range ledger.Months {
			// Axis Ace is never used.
			if i == 3 {
				row = append(row, 0)
				continue
			}
			row = append(row, 4000+(i+1)*1500+month*250)
		}
		rows = append(rows, row)
	}
	return s.upload(ctx, ledger.FeedBills, rows)
}

func (s *seeder) monthly(ctx context.Context) error {
	rows := [][]any{{"S.No", "Month", "Amount"}}
	total := 0
	for i, m := range ledger.Months {
		amount := 38000 + i*1200
		total += amount
		rows = append(rows, []any{i + 1, string(m)[:3] + "-" + strconv.Itoa(s.year%100), amount})
	}
	rows = append(rows, []any{"", "Grand Total", total})
	return s.upload(ctx, ledger.FeedMonthly, rows)
}

func (s *seeder) tracks(ctx context.Context) error {
	var rows [][]any
	for i, m := range ledger.Months {
		rows = append(rows,
			[]any{string(m), "Rent", 18000},
			[]any{"", "Kirana", 6000 + i*100},
			[]any{"", "Petrol", 3500},
			[]any{"", "Online Bills", 1800 + i*50},
		)
	}
	return s.upload(ctx, ledger.FeedTracks, rows)
}

func (s *seeder) debts(ctx context.Context) error {
	return s.upload(ctx, ledger.FeedDebts, [][]any{
		{"Lender", "amount"},
		{"HDFC Personal Loan", 185000},
		{"Bajaj Finserv", 42000},
		{"Uncle Suresh", 25000},
	})
}

func (s *seeder) budget(ctx context.Context) error {
	budget := make(ledger.Budget, len(ledger.Months))
	for _, m := range ledger.Months {
		budget[m] = 12000
	}
	resp, err := s.client.UpdateBudget(ctx, connect.NewRequest(&service.UpdateBudgetRequest{Budget: budget}))
	if err != nil {
		return err
	}
	s.log.Info().Float64("total", float64(resp.Msg.Total)).Msg("budget set")
	return nil
}

func (s *seeder) spends(ctx context.Context) error {
	spends := []struct {
		amount   ledger.Amount
		daysAgo  int
		category string
		note     string
	}{
		{1450, 0, "Groceries", "DMart weekly shop"},
		{299, 1, "Subscriptions", "Spotify family"},
		{2100, 3, "Fuel", "Indian Oil, full tank"},
		{860, 6, "Dining", "Dinner at Meghana's"},
		{4999, 12, "Shopping", "Running shoes"},
		{650, 20, "Utilities", "Broadband recharge"},
	}
	for _, sp := range spends {
		date := time.Now().AddDate(0, 0, -sp.daysAgo).Format(ledger.DateLayout)
		if _, err := s.client.AddSpend(ctx, connect.NewRequest(&service.AddSpendRequest{
			Amount:   sp.amount,
			Date:     date,
			Category: sp.category,
			Note:     sp.note,
		})); err != nil {
			return err
		}
	}
	s.log.Info().Int("count", len(spends)).Msg("spends added")
	return nil
}

// workbook renders rows into an xlsx file.
func workbook(rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
